package audit

import (
	"context"

	"github.com/aadrigaar/portal-productos/pkg/log"
)

// Audit actions for the portal.
const (
	ActionRegister      = "user.register"
	ActionLogin         = "user.login"
	ActionLoginFailed   = "user.login_failed"
	ActionUpdateRole    = "user.update_role"
	ActionDeleteUser    = "user.delete"
	ActionCreateProduct = "product.create"
	ActionUpdateProduct = "product.update"
	ActionDeleteProduct = "product.delete"
	ActionSeedProducts  = "product.seed_examples"
	ActionCreateOrder   = "order.create"
	ActionUpdateOrder   = "order.update_status"
	ActionDeleteMessage = "chat.delete_message"
	ActionClearHistory  = "chat.clear_history"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithTarget emits an audit log naming the affected entity.
func LogWithTarget(ctx context.Context, action string, userID, targetID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}
