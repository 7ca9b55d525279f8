package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-marketplace-api/apperr"
	"food-marketplace-api/audit"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const auditTrailLimit = 100

type OrderService struct {
	db *gorm.DB
	recorder
	trail audit.Reader
}

func NewOrderService(db *gorm.DB, auditLog audit.Log, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, recorder: recorder{log: auditLog, logger: logger}}
}

// WithTrail enables AuditTrail reads from r.
func (s *OrderService) WithTrail(r audit.Reader) *OrderService {
	s.trail = r
	return s
}

type LineRequest struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

type PlaceOrderRequest struct {
	RestaurantID    uint          `json:"restaurant_id"`
	DeliveryAddress string        `json:"delivery_address"`
	Notes           string        `json:"notes"`
	Items           []LineRequest `json:"items"`
}

type PlacedOrder struct {
	OrderID       uint                 `json:"order_id"`
	Total         decimal.Decimal      `json:"total"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Items         []models.OrderLine   `json:"items"`
}

// StatusSummary is returned by owner and admin status updates.
type StatusSummary struct {
	ID         uint               `json:"id"`
	Restaurant string             `json:"restaurant"`
	Status     models.OrderStatus `json:"status"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// PlaceOrder validates every line against the restaurant's menu, prices it
// from the current menu and persists the order, its lines and the first
// history row in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, caller Caller, req PlaceOrderRequest) (*PlacedOrder, error) {
	switch caller.Role {
	case models.RoleUser:
	case models.RoleRider, models.RoleOwner, models.RoleAdmin:
		return nil, apperr.Forbidden("only customers can place orders")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	address := strings.TrimSpace(req.DeliveryAddress)
	if req.RestaurantID == 0 || address == "" || len(req.Items) == 0 {
		return nil, apperr.Validation("restaurant, delivery address, and at least one menu item are required")
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, req.RestaurantID).Error; err != nil {
			return notFoundOr(err, "restaurant not found")
		}

		lines, total, err := priceLines(tx, restaurant.ID, req.Items)
		if err != nil {
			return err
		}

		order = models.Order{
			UserID:          caller.UserID,
			RestaurantID:    restaurant.ID,
			Status:          models.StatusPending,
			PaymentStatus:   models.PaymentPending,
			Total:           total,
			DeliveryAddress: address,
			Notes:           strings.TrimSpace(req.Notes),
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			if err := tx.Create(&lines[i]).Error; err != nil {
				return fmt.Errorf("insert order line %d: %w", i, err)
			}
		}
		order.Lines = lines

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: caller.UserID,
			Note:      "Order placed by customer",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to place order")
	}

	s.record(ctx, caller, audit.ActionOrderPlaced, order.ID, map[string]any{
		"restaurant_id": order.RestaurantID,
		"total":         order.Total.StringFixed(2),
		"lines":         len(order.Lines),
	})

	return &PlacedOrder{
		OrderID:       order.ID,
		Total:         order.Total,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Items:         order.Lines,
	}, nil
}

// priceLines resolves each requested item under restaurantID only, so an id
// from another restaurant is rejected rather than substituted.
func priceLines(tx *gorm.DB, restaurantID uint, items []LineRequest) ([]models.OrderLine, decimal.Decimal, error) {
	lines := make([]models.OrderLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		var menuItem models.MenuItem
		err := tx.Where("id = ? AND restaurant_id = ?", item.MenuItemID, restaurantID).First(&menuItem).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, apperr.Validation("menu item %d does not belong to restaurant %d", item.MenuItemID, restaurantID)
		}
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("load menu item %d: %w", item.MenuItemID, err)
		}

		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		line := models.OrderLine{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   quantity,
			UnitPrice:  menuItem.Price,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}
	return lines, total, nil
}

// UpdateStatus lets an owner (own restaurant only) or an admin set any
// recognised status. No lifecycle guard applies here.
func (s *OrderService) UpdateStatus(ctx context.Context, caller Caller, orderID uint, status, note string) (*StatusSummary, error) {
	switch caller.Role {
	case models.RoleOwner, models.RoleAdmin:
	case models.RoleUser, models.RoleRider:
		return nil, apperr.Forbidden("only restaurant owners and admins can update order status")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperr.Validation("invalid status %q. Must be one of: %s", status, statusList())
	}

	var (
		summary StatusSummary
		prev    models.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Restaurant").First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order not found")
		}
		if caller.Role == models.RoleOwner && (order.Restaurant == nil || order.Restaurant.OwnerID != caller.UserID) {
			return apperr.Forbidden("you can only update orders for your own restaurant")
		}

		prev = order.Status
		now := time.Now()
		updates := map[string]any{"status": next, "updated_at": now}
		if next == models.StatusCancelled && order.PaymentStatus == models.PaymentPending {
			updates["payment_status"] = models.PaymentFailed
		}
		err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if caller.Role == models.RoleAdmin && note != "" {
			note = "[ADMIN] " + note
		}
		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prev,
			ToStatus:   next,
			ChangedBy:  caller.UserID,
			Note:       note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}

		summary = StatusSummary{ID: order.ID, Status: next, UpdatedAt: now}
		if order.Restaurant != nil {
			summary.Restaurant = order.Restaurant.Name
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to update order status")
	}

	s.record(ctx, caller, audit.ActionStatusUpdated, orderID, statusData(prev, next))
	return &summary, nil
}

// Claim moves a Pending order to the claimed state for the calling rider.
// The status check and the write are a single conditional UPDATE, so of two
// riders racing for the same order exactly one succeeds.
func (s *OrderService) Claim(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	switch caller.Role {
	case models.RoleRider:
	case models.RoleUser, models.RoleOwner, models.RoleAdmin:
		return nil, apperr.Forbidden("only riders can claim orders")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	riderID := caller.UserID
	return s.transition(ctx, caller, orderID, statusChange{
		to:      models.StatusClaimed,
		set:     map[string]any{"rider_id": riderID},
		note:    "Order claimed by rider",
		action:  audit.ActionOrderClaimed,
		invalid: "order is not pending, it may already be claimed",
		apply:   func(o *models.Order) { o.RiderID = &riderID },
	})
}

// Cancel lets the placing user cancel while the order is Pending or Preparing.
// Payment is only collected on delivery, so a cancelled order's payment fails.
func (s *OrderService) Cancel(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	switch caller.Role {
	case models.RoleUser:
	case models.RoleRider, models.RoleOwner, models.RoleAdmin:
		return nil, apperr.Forbidden("only the customer who placed the order can cancel it")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	return s.transition(ctx, caller, orderID, statusChange{
		to:     models.StatusCancelled,
		set:    map[string]any{"payment_status": models.PaymentFailed},
		note:   "Order cancelled by customer",
		action: audit.ActionOrderCancelled,
		authorize: func(o *models.Order) error {
			if o.UserID != caller.UserID {
				return apperr.Forbidden("this order does not belong to you")
			}
			return nil
		},
		apply: func(o *models.Order) { o.PaymentStatus = models.PaymentFailed },
	})
}

// Deliver lets the assigned rider complete a Ready order.
func (s *OrderService) Deliver(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	switch caller.Role {
	case models.RoleRider:
	case models.RoleUser, models.RoleOwner, models.RoleAdmin:
		return nil, apperr.Forbidden("only riders can deliver orders")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	return s.transition(ctx, caller, orderID, statusChange{
		to:     models.StatusCompleted,
		set:    map[string]any{"payment_status": models.PaymentCompleted},
		note:   "Order delivered to customer",
		action: audit.ActionOrderDelivered,
		authorize: func(o *models.Order) error {
			if o.RiderID == nil || *o.RiderID != caller.UserID {
				return apperr.Forbidden("you are not the assigned rider for this order")
			}
			return nil
		},
		apply: func(o *models.Order) { o.PaymentStatus = models.PaymentCompleted },
	})
}

type statusChange struct {
	to        models.OrderStatus
	set       map[string]any
	note      string
	action    string
	invalid   string
	authorize func(*models.Order) error
	apply     func(*models.Order)
}

// transition performs a lifecycle-guarded status change as a compare-and-swap
// on the status observed when the order was loaded.
func (s *OrderService) transition(ctx context.Context, caller Caller, orderID uint, change statusChange) (*models.Order, error) {
	var (
		order models.Order
		prev  models.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order not found")
		}
		if change.authorize != nil {
			if err := change.authorize(&order); err != nil {
				return err
			}
		}

		prev = order.Status
		if err := statemachine.CanTransition(prev, change.to, caller.Role); err != nil {
			return invalidState(change.invalid, err)
		}

		now := time.Now()
		updates := map[string]any{"status": change.to, "updated_at": now}
		for k, v := range change.set {
			updates[k] = v
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, prev).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidState(change.invalid, fmt.Errorf("order %d changed state concurrently", order.ID))
		}

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prev,
			ToStatus:   change.to,
			ChangedBy:  caller.UserID,
			Note:       change.note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}

		order.Status = change.to
		order.UpdatedAt = now
		if change.apply != nil {
			change.apply(&order)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to update order")
	}

	s.record(ctx, caller, change.action, order.ID, statusData(prev, change.to))
	return &order, nil
}

func invalidState(msg string, cause error) error {
	if msg == "" {
		msg = cause.Error()
	}
	return apperr.InvalidState("%s", msg).WithCause(cause)
}

func statusList() string {
	parts := make([]string, len(models.OrderStatuses))
	for i, st := range models.OrderStatuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, ", ")
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines").Preload("Lines.MenuItem", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "restaurant_id", "name", "price")
	})
}

func selectRestaurantSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "address", "phone", "image_url")
}

func selectUserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "phone")
}

// MyOrders returns the caller's orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, caller Caller) ([]models.Order, error) {
	var orders []models.Order
	err := preloadLines(s.db.WithContext(ctx)).
		Preload("Restaurant", selectRestaurantSummary).
		Where("user_id = ?", caller.UserID).
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch orders")
	}
	return orders, nil
}

// RestaurantOrders scopes an owner to their own restaurant; admins see every
// restaurant. status filters when non-empty.
func (s *OrderService) RestaurantOrders(ctx context.Context, caller Caller, status string) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	query := preloadLines(db).
		Preload("Restaurant", selectRestaurantSummary).
		Preload("User", selectUserSummary)

	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleOwner:
		var restaurant models.Restaurant
		if err := db.Where("owner_id = ?", caller.UserID).First(&restaurant).Error; err != nil {
			return nil, notFoundOr(err, "restaurant not found for this owner")
		}
		query = query.Where("restaurant_id = ?", restaurant.ID)
	case models.RoleUser, models.RoleRider:
		return nil, apperr.Forbidden("only restaurant owners and admins can view restaurant orders")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	if status != "" {
		st, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, apperr.Validation("invalid status %q. Must be one of: %s", status, statusList())
		}
		query = query.Where("status = ?", st)
	}

	var orders []models.Order
	if err := query.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch restaurant orders")
	}
	return orders, nil
}

// PendingOrders lists unclaimed orders oldest first so riders pick them up in
// arrival order.
func (s *OrderService) PendingOrders(ctx context.Context, caller Caller) ([]models.Order, error) {
	switch caller.Role {
	case models.RoleRider, models.RoleAdmin:
	case models.RoleUser, models.RoleOwner:
		return nil, apperr.Forbidden("only riders can view pending orders")
	default:
		return nil, apperr.Forbidden("unknown role %q", caller.Role)
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Restaurant", selectRestaurantSummary).
		Where("status = ?", models.StatusPending).
		Order("created_at asc, id asc").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch pending orders")
	}
	return orders, nil
}

// MyDeliveries returns orders claimed by the calling rider.
func (s *OrderService) MyDeliveries(ctx context.Context, caller Caller) ([]models.Order, error) {
	if caller.Role != models.RoleRider {
		return nil, apperr.Forbidden("only riders have deliveries")
	}

	var orders []models.Order
	err := preloadLines(s.db.WithContext(ctx)).
		Preload("Restaurant", selectRestaurantSummary).
		Preload("User", selectUserSummary).
		Where("rider_id = ?", caller.UserID).
		Order("updated_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch deliveries")
	}
	return orders, nil
}

// GetOrder returns the full order to its placer, the restaurant owner, the
// assigned rider and admins.
func (s *OrderService) GetOrder(ctx context.Context, caller Caller, orderID uint) (*models.Order, error) {
	var order models.Order
	err := preloadLines(s.db.WithContext(ctx)).
		Preload("Restaurant", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "owner_id", "name", "address", "phone", "image_url")
		}).
		Preload("User", selectUserSummary).
		Preload("Rider", selectUserSummary).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc, id asc")
		}).
		First(&order, orderID).Error
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}

	var allowed bool
	switch caller.Role {
	case models.RoleAdmin:
		allowed = true
	case models.RoleUser:
		allowed = order.UserID == caller.UserID
	case models.RoleOwner:
		allowed = order.Restaurant != nil && order.Restaurant.OwnerID == caller.UserID
	case models.RoleRider:
		allowed = order.RiderID != nil && *order.RiderID == caller.UserID
	}
	if !allowed {
		return nil, apperr.Forbidden("you do not have access to this order")
	}
	return &order, nil
}

// AuditTrail returns the stored audit entries of an order, newest first.
// Admin only.
func (s *OrderService) AuditTrail(ctx context.Context, caller Caller, orderID uint) ([]audit.Entry, error) {
	if caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only admins can read the audit trail")
	}
	if s.trail == nil {
		return nil, apperr.NotFound("audit trail storage is not configured")
	}
	var order models.Order
	if err := s.db.WithContext(ctx).Select("id").First(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err, "order not found")
	}

	entries, err := s.trail.Entries(ctx, order.ID, audit.OrderActions, auditTrailLimit)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load audit trail")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return entries, nil
}
