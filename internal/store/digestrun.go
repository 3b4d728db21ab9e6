package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// Status 运行状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

const dateLayout = "2006-01-02"

// DigestRun 一次区间总结的运行记录，日期区间为闭区间
type DigestRun struct {
	ID           string    `json:"id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Model        string    `json:"model"`
	Newsletter   bool      `json:"newsletter"`
	Status       Status    `json:"status"`
	Summary      string    `json:"summary,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type DigestRunModel struct {
	db  *sql.DB
	now func() time.Time
}

func NewDigestRunModel(db *sql.DB) *DigestRunModel {
	return &DigestRunModel{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const selectColumns = `SELECT id, start_date, end_date, model, newsletter, status, summary, output_path, error_message, created_at, updated_at FROM digest_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*DigestRun, error) {
	var run DigestRun
	var start, end, status string
	if err := row.Scan(&run.ID, &start, &end, &run.Model, &run.Newsletter, &status,
		&run.Summary, &run.OutputPath, &run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var err error
	if run.StartDate, err = time.Parse(dateLayout, start); err != nil {
		return nil, fmt.Errorf("解析 start_date 失败: %w", err)
	}
	if run.EndDate, err = time.Parse(dateLayout, end); err != nil {
		return nil, fmt.Errorf("解析 end_date 失败: %w", err)
	}
	run.Status = Status(status)
	return &run, nil
}

func queryRuns(ctx context.Context, db *sql.DB, query string, args ...any) ([]*DigestRun, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*DigestRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Create 创建运行记录
func (m *DigestRunModel) Create(ctx context.Context, startDate, endDate time.Time, model string, newsletter bool, status Status) (*DigestRun, error) {
	now := m.now()
	run := &DigestRun{
		ID:         uuid.NewString(),
		StartDate:  startDate,
		EndDate:    endDate,
		Model:      model,
		Newsletter: newsletter,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := m.db.ExecContext(ctx,
		`INSERT INTO digest_runs (id, start_date, end_date, model, newsletter, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, startDate.Format(dateLayout), endDate.Format(dateLayout), model, newsletter, string(status), now, now)
	if err != nil {
		return nil, fmt.Errorf("创建运行记录失败: %w", err)
	}
	return run, nil
}

// GetOrCreate 获取或创建运行记录，已存在相同区间与模型的记录时直接返回
func (m *DigestRunModel) GetOrCreate(ctx context.Context, startDate, endDate time.Time, model string, newsletter bool, status Status) (*DigestRun, error) {
	existing, err := m.GetByDateRange(ctx, startDate, endDate, model)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return m.Create(ctx, startDate, endDate, model, newsletter, status)
}

// GetByDateRange 查询指定区间与模型的运行记录
func (m *DigestRunModel) GetByDateRange(ctx context.Context, startDate, endDate time.Time, model string) (*DigestRun, error) {
	row := m.db.QueryRowContext(ctx, selectColumns+` WHERE start_date = ? AND end_date = ? AND model = ?`,
		startDate.Format(dateLayout), endDate.Format(dateLayout), model)
	return scanRun(row)
}

// Get 按 ID 查询
func (m *DigestRunModel) Get(ctx context.Context, id string) (*DigestRun, error) {
	return scanRun(m.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
}

// GetIncompleteRuns 查询所有未完成的运行记录（pending 或 in_progress），按创建时间先后
func (m *DigestRunModel) GetIncompleteRuns(ctx context.Context) ([]*DigestRun, error) {
	return queryRuns(ctx, m.db, selectColumns+` WHERE status IN (?, ?) ORDER BY created_at ASC`,
		string(StatusPending), string(StatusInProgress))
}

// List 按创建时间倒序列出最近的运行记录
func (m *DigestRunModel) List(ctx context.Context, limit int) ([]*DigestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return queryRuns(ctx, m.db, selectColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
}

// MarkInProgress 重新开始执行（失败记录重跑时使用）
func (m *DigestRunModel) MarkInProgress(ctx context.Context, id string) error {
	return m.update(ctx, id, `status = ?, error_message = ''`, string(StatusInProgress))
}

// MarkCompleted 标记完成并保存总结内容与输出路径
func (m *DigestRunModel) MarkCompleted(ctx context.Context, id, summary, outputPath string) error {
	return m.update(ctx, id, `status = ?, summary = ?, output_path = ?, error_message = ''`,
		string(StatusCompleted), summary, outputPath)
}

// MarkFailed 标记失败
func (m *DigestRunModel) MarkFailed(ctx context.Context, id, errorMsg string) error {
	return m.update(ctx, id, `status = ?, error_message = ?`, string(StatusFailed), errorMsg)
}

func (m *DigestRunModel) update(ctx context.Context, id, set string, args ...any) error {
	args = append(args, m.now(), id)
	result, err := m.db.ExecContext(ctx, `UPDATE digest_runs SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("更新运行记录失败: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新运行记录失败: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
