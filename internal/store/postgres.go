package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"joana-bot/config"
	"joana-bot/internal/models"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(cfg config.DBConfig) (*Postgres, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateOrder persists the cart with a per-line price/category snapshot and
// returns the new order id.
func (db *Postgres) CreateOrder(ctx context.Context, phone string, lines []models.OrderLine, total float64) (int64, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int64
	err = tx.QueryRow(ctx, `
        INSERT INTO orders (phone, total, status)
        VALUES ($1, $2, $3)
        RETURNING id
    `, phone, total, models.OrderStatusPending).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range lines {
		_, err = tx.Exec(ctx, `
            INSERT INTO order_lines (order_id, item, qty, spicy, nonspicy, price, subtotal, category)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, orderID, line.Item, line.Qty, line.Spicy, line.NonSpicy, line.Price, line.Subtotal, line.Category)
		if err != nil {
			return 0, fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order: %w", err)
	}
	return orderID, nil
}

// UpdatePayment records the payment method and status and schedules the
// feedback reminder.
func (db *Postgres) UpdatePayment(ctx context.Context, orderID int64, method, status string, feedbackDueAt time.Time) error {
	_, err := db.pool.Exec(ctx, `
        UPDATE orders
        SET payment_method = $2, status = $3, feedback_due_at = $4, updated_at = NOW()
        WHERE id = $1
    `, orderID, method, status, feedbackDueAt)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (db *Postgres) MarkCancelled(ctx context.Context, orderID int64) error {
	_, err := db.pool.Exec(ctx, `
        UPDATE orders
        SET status = $2, updated_at = NOW()
        WHERE id = $1
    `, orderID, models.OrderStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to mark order cancelled: %w", err)
	}
	return nil
}

func (db *Postgres) SaveFeedback(ctx context.Context, fb *models.Feedback) error {
	_, err := db.pool.Exec(ctx, `
        INSERT INTO feedback (order_id, phone, rating, comment)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (order_id) DO UPDATE
        SET rating = $3, comment = $4
    `, fb.OrderID, fb.Phone, fb.Rating, fb.Comment)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// DueReminders returns orders whose feedback prompt became due and was not
// sent yet.
func (db *Postgres) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := db.pool.Query(ctx, `
        SELECT id, phone
        FROM orders
        WHERE feedback_due_at IS NOT NULL
          AND feedback_due_at <= $1
          AND NOT feedback_sent
          AND status <> $2
        ORDER BY feedback_due_at
    `, now, models.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := rows.Scan(&r.OrderID, &r.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *Postgres) MarkReminderSent(ctx context.Context, orderID int64) error {
	_, err := db.pool.Exec(ctx, `
        UPDATE orders
        SET feedback_sent = TRUE, updated_at = NOW()
        WHERE id = $1
    `, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
