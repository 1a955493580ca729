package mariadb

import (
	"database/sql"
	"time"

	"github.com/pixav/maxwell/internal/db"
)

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time
	return &tt
}

func nullUUIDPtr(u db.NullUUID) *db.UUID {
	if !u.Valid {
		return nil
	}
	id := u.UUID
	return &id
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
