package sheets

import (
    "context"
    "fmt"

    sheetsv4 "google.golang.org/api/sheets/v4"
)

const SheetRegistrations = "Registrations"

func (c *Client) readAll(ctx context.Context, sheet string) ([][]interface{}, error) {
    resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:Z").Context(ctx).Do()
    if err != nil {
        return nil, err
    }
    return resp.Values, nil
}

func (c *Client) appendRows(ctx context.Context, sheet string, rows [][]interface{}) error {
    vr := &sheetsv4.ValueRange{Values: rows}
    _, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:Z", vr).
        ValueInputOption("RAW").
        InsertDataOption("INSERT_ROWS").
        Context(ctx).
        Do()
    return err
}

func (c *Client) updateRange(ctx context.Context, sheet, a1 string, rows [][]interface{}) error {
    vr := &sheetsv4.ValueRange{Values: rows}
    _, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!"+a1, vr).
        ValueInputOption("RAW").
        Context(ctx).
        Do()
    return err
}

func (c *Client) clear(ctx context.Context, sheet string) error {
    _, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, sheet+"!A:Z", &sheetsv4.ClearValuesRequest{}).
        Context(ctx).
        Do()
    return err
}

// findRow returns the 1-based sheet row whose first column equals key, or 0.
// values[0] is the header row.
func findRow(values [][]interface{}, key string) int {
    for i := 1; i < len(values); i++ {
        if get(values[i], 0) == key {
            return i + 1 // sheet rows are 1-indexed
        }
    }
    return 0
}

func get(row []interface{}, idx int) string {
    if idx < 0 || idx >= len(row) || row[idx] == nil {
        return ""
    }
    return fmt.Sprint(row[idx])
}
