package usecase

import (
	"context"
	"net/http"
	"strings"

	"edushop/internal/domain/model"
	repo "edushop/internal/repository"
)

// ChatbotUsecase はキーワード分類だけの応答器。状態は持たない
type ChatbotUsecase struct {
	productRepo repo.ProductRepository
}

func NewChatbotUsecase(productRepo repo.ProductRepository) *ChatbotUsecase {
	return &ChatbotUsecase{productRepo: productRepo}
}

func (u *ChatbotUsecase) Reply(ctx context.Context, message string) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return "", NewHTTPError(http.StatusBadRequest, "message required")
	}

	products, err := u.productRepo.ListActive(ctx)
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}

	switch {
	case containsAny(msg, "precio", "cuánto cuesta", "cuanto cuesta"):
		return priceReply(msg, products), nil

	case strings.Contains(msg, "curso"):
		return listByCategory(products, model.ProductCategoryCurso, "📘 Nuestros cursos:"), nil

	case strings.Contains(msg, "libro"):
		return listByCategory(products, model.ProductCategoryLibro, "📖 Nuestros libros:"), nil

	case containsAny(msg, "hola", "buenos", "buenas"):
		return "¡Hola! 👋 Bienvenido a EduShop. Puedo ayudarte con información sobre nuestros cursos y libros. ¿Qué necesitas?", nil

	case containsAny(msg, "pago", "pagar"):
		return "💳 Aceptamos: Tarjeta de crédito/débito, Yape, Plin y transferencia bancaria.", nil

	case containsAny(msg, "descuento", "oferta"):
		return "🎉 Actualmente tenemos descuentos en paquetes. ¡Compra 2 cursos y obtén 15% de descuento!", nil
	}

	return "Puedo ayudarte con:\n• Lista de cursos y libros\n• Precios\n• Métodos de pago\n¿Qué quieres saber?", nil
}

func containsAny(msg string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			return true
		}
	}
	return false
}

// 商品名の単語がメッセージに出てきたらその商品の価格を答える
func priceReply(msg string, products []model.Product) string {
	var lines []string
	for _, p := range products {
		if nameMentioned(msg, p.Name) {
			lines = append(lines, "📚 "+p.Name+": S/ "+p.Price.StringFixed(2))
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	return "Los precios van desde S/ 17.99 hasta S/ 59.99. ¿Sobre qué producto quieres saber?"
}

func nameMentioned(msg string, name string) bool {
	for _, w := range strings.Fields(strings.ToLower(name)) {
		// 短い単語（de, la など）とカテゴリ語では照合しない
		if len(w) < 4 || isGenericWord(w) {
			continue
		}
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

func isGenericWord(w string) bool {
	switch w {
	case "curso", "cursos", "libro", "libros":
		return true
	}
	return false
}

func listByCategory(products []model.Product, cat model.ProductCategory, header string) string {
	var lines []string
	for _, p := range products {
		if p.Category == cat {
			lines = append(lines, "• "+p.Name+" - S/ "+p.Price.StringFixed(2))
		}
	}
	if len(lines) == 0 {
		return "Por ahora no tenemos productos en esa categoría."
	}
	return header + "\n" + strings.Join(lines, "\n")
}
