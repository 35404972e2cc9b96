package models

import "time"

type Registration struct {
    UserID                 int64
    FullName               string
    BirthDate              string // DD.MM.YYYY
    Email                  string
    Phone                  string // +7XXXXXXXXXX or 8XXXXXXXXXX
    University             string
    Course                 string
    InterestedInInternship bool
    ConsentGiven           bool
    ConsentAt              time.Time
    RegisteredAt           time.Time
    TelegramUsername       string // without "@", may be empty
}

// Handle returns the telegram username with "@" or "" when unset.
func (r Registration) Handle() string {
    if r.TelegramUsername == "" {
        return ""
    }
    return "@" + r.TelegramUsername
}

type AdminChannel struct {
    UserID       int64
    Username     string
    ChatID       int64
    RegisteredAt time.Time
}

// Count is one group-by bucket.
type Count struct {
    Key   string
    Count int
}

type Statistics struct {
    Total        int
    ByUniversity []Count // count desc, key asc
    ByCourse     []Count
}
