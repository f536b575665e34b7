package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"expander/expander/config"
	"expander/expander/controllers"
	"expander/expander/middlewares"
	"expander/expander/orchestration"
	"expander/expander/services/llm"
	"expander/expander/utils/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat/ : send one user message and get the assistant reply
		gr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req types.SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			resp, err := ctrl.SendMessage(r.Context(), req)
			if err != nil {
				writeChatError(w, err)
				return
			}
			json.NewEncoder(w).Encode(resp)
		})

		// GET /chat/conversations : calendar listing
		gr.Get("/conversations", func(w http.ResponseWriter, r *http.Request) {
			convs, err := ctrl.ListConversations(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(convs)
		})

		// GET /chat/conversation/{conversation_id}/messages
		gr.Get("/conversation/{conversation_id}/messages", func(w http.ResponseWriter, r *http.Request) {
			msgs, err := ctrl.GetMessages(r.Context(), chi.URLParam(r, "conversation_id"))
			if err != nil {
				writeChatError(w, err)
				return
			}
			json.NewEncoder(w).Encode(msgs)
		})

		// DELETE /chat/conversation/{conversation_id}
		gr.Delete("/conversation/{conversation_id}", func(w http.ResponseWriter, r *http.Request) {
			if err := ctrl.DeleteConversation(r.Context(), chi.URLParam(r, "conversation_id")); err != nil {
				writeChatError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// POST /chat/conversation/{conversation_id}/clear : wipe messages,
		// keep the day row
		gr.Post("/conversation/{conversation_id}/clear", func(w http.ResponseWriter, r *http.Request) {
			if err := ctrl.ClearConversation(r.Context(), chi.URLParam(r, "conversation_id")); err != nil {
				writeChatError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// Websocket shell: one message in, one reply out. The token rides in the
	// payload because browsers cannot set headers on websocket upgrades.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token   string                   `json:"token"`
			Request types.SendMessageRequest `json:"request"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}
		if !middlewares.ValidateToken(cfg, input.Token) {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		resp, err := ctrl.SendMessage(ctx, input.Request)
		if err != nil {
			payload, _ := json.Marshal(map[string]string{"error": userFacing(err)})
			conn.Write(ctx, websocket.MessageText, payload)
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		payload, _ := json.Marshal(resp)
		conn.Write(ctx, websocket.MessageText, payload)
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}

// writeChatError maps pipeline failures to HTTP statuses without leaking
// internals the client cannot act on.
func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controllers.ErrConversationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, orchestration.ErrConversationBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, controllers.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case llm.KindOf(err) == llm.KindInvalidMessageFormat:
		http.Error(w, userFacing(err), http.StatusBadRequest)
	default:
		http.Error(w, userFacing(err), http.StatusInternalServerError)
	}
}

func userFacing(err error) string {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return llmErr.UserMessage()
	}
	return err.Error()
}
