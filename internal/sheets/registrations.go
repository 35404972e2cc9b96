package sheets

import (
    "context"
    "fmt"
    "strconv"

    "forum-bot/internal/models"
)

// Header is row 1 of the Registrations sheet.
var Header = []interface{}{
    "user_id", "full_name", "birth_date", "email", "phone", "university", "course",
    "internship", "telegram", "registered_at", "consent_at",
}

const timeLayout = "02.01.2006 15:04:05"

func registrationRow(r models.Registration) []interface{} {
    internship := "нет"
    if r.InterestedInInternship {
        internship = "да"
    }
    return []interface{}{
        strconv.FormatInt(r.UserID, 10),
        r.FullName,
        r.BirthDate,
        r.Email,
        r.Phone,
        r.University,
        r.Course,
        internship,
        r.Handle(),
        r.RegisteredAt.Local().Format(timeLayout),
        r.ConsentAt.Local().Format(timeLayout),
    }
}

// UpsertRegistration rewrites the row of r.UserID in place or appends a new
// one. An empty sheet gets the header first.
func (c *Client) UpsertRegistration(ctx context.Context, r models.Registration) error {
    c.mu.Lock()
    defer c.mu.Unlock()

    values, err := c.readAll(ctx, SheetRegistrations)
    if err != nil {
        return fmt.Errorf("sheets: read: %w", err)
    }
    row := registrationRow(r)

    if len(values) == 0 {
        if err := c.appendRows(ctx, SheetRegistrations, [][]interface{}{Header, row}); err != nil {
            return fmt.Errorf("sheets: append: %w", err)
        }
        return nil
    }

    if n := findRow(values, strconv.FormatInt(r.UserID, 10)); n > 0 {
        a1 := fmt.Sprintf("A%d:K%d", n, n)
        if err := c.updateRange(ctx, SheetRegistrations, a1, [][]interface{}{row}); err != nil {
            return fmt.Errorf("sheets: update row %d: %w", n, err)
        }
        return nil
    }

    if err := c.appendRows(ctx, SheetRegistrations, [][]interface{}{row}); err != nil {
        return fmt.Errorf("sheets: append: %w", err)
    }
    return nil
}

// SyncRegistrations replaces the whole sheet with regs.
func (c *Client) SyncRegistrations(ctx context.Context, regs []models.Registration) error {
    c.mu.Lock()
    defer c.mu.Unlock()

    if err := c.clear(ctx, SheetRegistrations); err != nil {
        return fmt.Errorf("sheets: clear: %w", err)
    }
    rows := make([][]interface{}, 0, len(regs)+1)
    rows = append(rows, Header)
    for _, r := range regs {
        rows = append(rows, registrationRow(r))
    }
    if err := c.updateRange(ctx, SheetRegistrations, "A1", rows); err != nil {
        return fmt.Errorf("sheets: write: %w", err)
    }
    return nil
}

// ListUserIDs returns the user ids present in the sheet, in row order.
func (c *Client) ListUserIDs(ctx context.Context) ([]int64, error) {
    values, err := c.readAll(ctx, SheetRegistrations)
    if err != nil {
        return nil, err
    }
    out := []int64{}
    for i := 1; i < len(values); i++ {
        id, err := strconv.ParseInt(get(values[i], 0), 10, 64)
        if err != nil {
            continue
        }
        out = append(out, id)
    }
    return out, nil
}
