// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bbsman/internal/model"
)

// envelope は全アクション共通のレスポンス形式。
type envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Payload    any    `json:"payload"`
	Redirect   string `json:"redirect,omitempty"`
}

// writeResponse は成功レスポンスをエンベロープ形式で書き込む。
func writeResponse(w http.ResponseWriter, statusCode int, message string, payload any) {
	writeEnvelope(w, envelope{
		StatusCode: statusCode,
		Message:    message,
		Payload:    payload,
	})
}

// writeRedirect は遷移先付きの成功レスポンスを書き込む。
func writeRedirect(w http.ResponseWriter, statusCode int, message string, payload any, redirect string) {
	writeEnvelope(w, envelope{
		StatusCode: statusCode,
		Message:    message,
		Payload:    payload,
		Redirect:   redirect,
	})
}

func writeEnvelope(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response",
			slog.String("error", err.Error()),
		)
	}
}

// handleServiceError はサービス層の失敗をレスポンスに変換する唯一の経路。
// AppErrorはそのステータスとメッセージで、それ以外は詳細をログにのみ
// 残して500の汎用メッセージで応答する。ペイロードは常に空。
func handleServiceError(w http.ResponseWriter, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		writeEnvelope(w, envelope{
			StatusCode: appErr.Status,
			Message:    appErr.Message,
		})
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeEnvelope(w, envelope{
		StatusCode: http.StatusInternalServerError,
		Message:    "サーバー内部でエラーが発生しました。",
	})
}

// decodeJSON はリクエストボディをJSONとして読み取る。
// 解析失敗はvalidationエラーとして返す。
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewValidationError("リクエストボディの解析に失敗しました。")
	}
	return nil
}
