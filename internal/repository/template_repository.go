package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/dlswn666/johapon-api/internal/model"
)

type TemplateRepositoryInterface interface {
	// GetByCode returns nil, nil when no template has the code.
	GetByCode(ctx context.Context, code string) (*model.Template, error)
	UpsertMany(ctx context.Context, templates []model.Template) (inserted, updated int, err error)
	DeleteNotIn(ctx context.Context, codes []string) (int, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `id, template_code, template_name, template_content, status, insp_status, buttons,
    sender_key, template_type, template_em_type, template_title, template_subtitle,
    template_image_name, template_image_url, cdate, comments, synced_at`

func (r *TemplateRepository) GetByCode(ctx context.Context, code string) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM alimtalk_templates WHERE template_code=$1`

	var (
		t        model.Template
		buttons  []byte
		content  sql.NullString
		status   sql.NullString
		insp     sql.NullString
		sender   sql.NullString
		typ      sql.NullString
		emType   sql.NullString
		title    sql.NullString
		subtitle sql.NullString
		imgName  sql.NullString
		imgURL   sql.NullString
		comments sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, code).Scan(
		&t.ID, &t.Code, &t.Name, &content, &status, &insp, &buttons,
		&sender, &typ, &emType, &title, &subtitle,
		&imgName, &imgURL, &t.CDate, &comments, &t.SyncedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	t.Content = content.String
	t.Status = status.String
	t.InspStatus = insp.String
	t.SenderKey = sender.String
	t.Type = typ.String
	t.EmType = emType.String
	t.Title = title.String
	t.Subtitle = subtitle.String
	t.ImageName = imgName.String
	t.ImageURL = imgURL.String
	t.Comments = comments.String
	if len(buttons) > 0 {
		if err := json.Unmarshal(buttons, &t.Buttons); err != nil {
			return nil, fmt.Errorf("decode buttons of template %s: %w", code, err)
		}
	}
	return &t, nil
}

// UpsertMany writes every template in one transaction. xmax = 0 on the
// returned row means the row was inserted rather than updated.
func (r *TemplateRepository) UpsertMany(ctx context.Context, templates []model.Template) (int, int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO alimtalk_templates
        (template_code, template_name, template_content, status, insp_status, buttons,
         sender_key, template_type, template_em_type, template_title, template_subtitle,
         template_image_name, template_image_url, cdate, comments, synced_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (template_code) DO UPDATE SET
            template_name=EXCLUDED.template_name,
            template_content=EXCLUDED.template_content,
            status=EXCLUDED.status,
            insp_status=EXCLUDED.insp_status,
            buttons=EXCLUDED.buttons,
            sender_key=EXCLUDED.sender_key,
            template_type=EXCLUDED.template_type,
            template_em_type=EXCLUDED.template_em_type,
            template_title=EXCLUDED.template_title,
            template_subtitle=EXCLUDED.template_subtitle,
            template_image_name=EXCLUDED.template_image_name,
            template_image_url=EXCLUDED.template_image_url,
            cdate=EXCLUDED.cdate,
            comments=EXCLUDED.comments,
            synced_at=EXCLUDED.synced_at
        RETURNING (xmax = 0)
    `
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, 0, err
	}
	defer stmt.Close()

	now := time.Now()
	inserted, updated := 0, 0
	for _, t := range templates {
		buttons, err := json.Marshal(t.Buttons)
		if err != nil {
			return 0, 0, fmt.Errorf("encode buttons of template %s: %w", t.Code, err)
		}

		var isInsert bool
		err = stmt.QueryRowContext(ctx,
			t.Code, t.Name, t.Content, t.Status, t.InspStatus, buttons,
			t.SenderKey, t.Type, t.EmType, t.Title, t.Subtitle,
			t.ImageName, t.ImageURL, t.CDate, t.Comments, now,
		).Scan(&isInsert)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert template %s: %w", t.Code, err)
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

// DeleteNotIn removes every template whose code is not listed. An empty list
// deletes all templates.
func (r *TemplateRepository) DeleteNotIn(ctx context.Context, codes []string) (int, error) {
	if codes == nil {
		codes = []string{}
	}
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM alimtalk_templates WHERE NOT (template_code = ANY($1))`,
		pq.Array(codes),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
