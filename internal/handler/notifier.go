package handler

import (
	"context"
	"fmt"
	"log"

	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
)

// Notifier emits in-app notifications as a side effect of workflow
// operations.  Emission is best-effort: a failed insert is logged and
// swallowed so it can never fail the request that triggered it.
type Notifier struct {
	Repo *repository.NotificationRepo
}

func NewNotifier(repo *repository.NotificationRepo) *Notifier {
	return &Notifier{Repo: repo}
}

// Emit stores a notification, logging any failure.
func (n *Notifier) Emit(ctx context.Context, notif model.Notification) {
	if n == nil || n.Repo == nil {
		return
	}
	if _, err := n.Repo.Create(ctx, notif); err != nil {
		log.Printf("notifier: create %s notification failed: %v", notif.Type, err)
	}
}

// EmitLowStock fires the low-stock alert for an item.  It fires on
// every consumption that leaves the item at or under its minimum, so
// a standing shortage keeps producing reminders until restock.
func (n *Notifier) EmitLowStock(ctx context.Context, item model.InventoryItem) {
	n.Emit(ctx, model.Notification{
		Type:  model.NotifyInventoryLow,
		Title: "Low stock: " + item.Name,
		Message: fmt.Sprintf("Item %q is down to %d (minimum %d)",
			item.Name, item.Quantity, item.MinQuantity),
		RelatedID:    item.ID,
		RelatedModel: model.RelatedInventory,
		TargetRoles:  []string{model.RoleManager},
		Priority:     "high",
	})
}
