// Package export renders registrations as CSV for the admin panel, the
// HTTP export link and the CLI.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"forum-bot/internal/models"
)

// Header is the first CSV row.
var Header = []string{
	"ФИО", "Дата рождения", "Email", "Телефон", "Университет", "Курс", "Telegram", "Дата регистрации",
}

const timestampLayout = "2006-01-02 15:04:05"

type Source interface {
	ListRegistrations(ctx context.Context) ([]models.Registration, error)
}

// WriteCSV writes the header and one row per registration. The telegram
// column is empty for users without a username.
func WriteCSV(w io.Writer, regs []models.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range regs {
		row := []string{
			r.FullName,
			r.BirthDate,
			r.Email,
			r.Phone,
			r.University,
			r.Course,
			r.Handle(),
			r.RegisteredAt.Local().Format(timestampLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Build loads every registration from src and returns the CSV bytes along
// with the number of rows.
func Build(ctx context.Context, src Source) ([]byte, int, error) {
	regs, err := src.ListRegistrations(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("export: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, regs); err != nil {
		return nil, 0, fmt.Errorf("export: %w", err)
	}
	return buf.Bytes(), len(regs), nil
}

// Filename is the attachment name for an export taken at t.
func Filename(t time.Time) string {
	return "registrations_" + t.Format("20060102_150405") + ".csv"
}
