package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"boron/internal/gateway/prompts"
	"boron/internal/llm"
)

// TemplateHandler picks the base template for a project request with a
// one-word model decision and returns the template's prompt set.
type TemplateHandler struct {
	llm llm.Client
}

func NewTemplateHandler(client llm.Client) *TemplateHandler {
	return &TemplateHandler{llm: client}
}

func (h *TemplateHandler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	answer, err := h.llm.GenerateText(llm.WithPhase(r.Context(), "template"), prompts.TemplateDecisionSystem, prompt)
	if err != nil {
		log.Printf("[template] decision: %v", err)
		http.Error(w, "template decision failed", http.StatusBadGateway)
		return
	}

	kind := strings.ToLower(strings.TrimSpace(answer))
	tpl, ok := prompts.Find(kind)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "You cant access this",
		})
		return
	}
	writeJSON(w, map[string]any{
		"kind":      tpl.Kind,
		"prompts":   tpl.Prompts,
		"uiPrompts": tpl.UIPrompts,
	})
}
