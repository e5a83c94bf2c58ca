package handler

import (
	"net/http"

	"edushop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ChatbotHandler struct {
	uc *usecase.ChatbotUsecase
}

func NewChatbotHandler(uc *usecase.ChatbotUsecase) *ChatbotHandler {
	return &ChatbotHandler{uc: uc}
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

func (h *ChatbotHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/chatbot", h.chat)
}

func (h *ChatbotHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	reply, err := h.uc.Reply(c.Request().Context(), req.Message)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
