package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
)

// SaveQuestionnaire replaces the stored topics and items with q.
func (s *SQLiteStorage) SaveQuestionnaire(ctx context.Context, q model.Questionnaire) (model.Questionnaire, error) {
	if err := validateContext(ctx); err != nil {
		return model.Questionnaire{}, err
	}
	if err := q.Validate(); err != nil {
		return model.Questionnaire{}, err
	}

	out := model.Questionnaire{
		Topics: append([]model.Topic(nil), q.Topics...),
		Items:  append([]model.Item(nil), q.Items...),
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return fmt.Errorf("failed to clear items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM topics`); err != nil {
			return fmt.Errorf("failed to clear topics: %w", err)
		}

		for i := range out.Topics {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO topics (name, description, position) VALUES (?, ?, ?)
			`, out.Topics[i].Name, out.Topics[i].Description, i)
			if err != nil {
				return fmt.Errorf("failed to save topic %q: %w", out.Topics[i].Name, err)
			}
			if out.Topics[i].ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get topic ID: %w", err)
			}
		}

		for i := range out.Items {
			item := &out.Items[i]
			res, err := tx.ExecContext(ctx, `
				INSERT INTO items (code, text, topic_id, position) VALUES (?, ?, ?, ?)
			`, item.Code, item.Text, out.Topics[item.Topic].ID, i)
			if err != nil {
				return fmt.Errorf("failed to save item %q: %w", item.Code, err)
			}
			if item.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get item ID: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Questionnaire{}, err
	}
	return out, nil
}

// LoadQuestionnaire reads the stored questionnaire in authored order.
func (s *SQLiteStorage) LoadQuestionnaire(ctx context.Context) (model.Questionnaire, error) {
	if err := validateContext(ctx); err != nil {
		return model.Questionnaire{}, err
	}

	var q model.Questionnaire
	topicIndex := map[int64]int{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, '') FROM topics ORDER BY position
	`)
	if err != nil {
		return model.Questionnaire{}, fmt.Errorf("failed to query topics: %w", err)
	}
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			_ = rows.Close()
			return model.Questionnaire{}, fmt.Errorf("failed to scan topic: %w", err)
		}
		topicIndex[t.ID] = len(q.Topics)
		q.Topics = append(q.Topics, t)
	}
	if err := rows.Close(); err != nil {
		return model.Questionnaire{}, fmt.Errorf("failed to read topics: %w", err)
	}
	if len(q.Topics) == 0 {
		return model.Questionnaire{}, common.ErrNoQuestionnaire
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, code, text, topic_id FROM items ORDER BY position
	`)
	if err != nil {
		return model.Questionnaire{}, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item model.Item
		var topicID int64
		if err := rows.Scan(&item.ID, &item.Code, &item.Text, &topicID); err != nil {
			return model.Questionnaire{}, fmt.Errorf("failed to scan item: %w", err)
		}
		idx, ok := topicIndex[topicID]
		if !ok {
			return model.Questionnaire{}, fmt.Errorf("%w: item %q references missing topic %d",
				common.ErrDatabaseCorrupted, item.Code, topicID)
		}
		item.Topic = idx
		q.Items = append(q.Items, item)
	}
	if err := rows.Err(); err != nil {
		return model.Questionnaire{}, fmt.Errorf("failed to read items: %w", err)
	}
	return q, nil
}
