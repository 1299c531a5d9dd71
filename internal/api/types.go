package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque note/folder/room identifier. The server sends these as
// JSON numbers or strings depending on the endpoint, so both are accepted.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric identifiers as JSON numbers and anything else
// as a string. The update endpoint expects a number for numeric ids.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// IsNumeric reports whether the identifier is a base-10 integer in
// canonical form. "007" and "+5" are not valid JSON numbers and stay strings.
func (id ID) IsNumeric() bool {
	if id == "" {
		return false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// Note is a note as returned by the getnote endpoint.
type Note struct {
	ID         ID     `json:"ID"`
	Title      string `json:"Title"`
	Content    string `json:"Content"`
	FolderID   ID     `json:"FolderID"`
	RoomID     ID     `json:"RoomID"`
	RoomName   string `json:"RoomName"`
	FolderName string `json:"FolderName"`
	CreatedAt  int64  `json:"CreatedAt"`
}

// NoteSummary is one entry of a folder listing.
type NoteSummary struct {
	ID        ID     `json:"ID"`
	Title     string `json:"Title"`
	CreatedAt int64  `json:"CreatedAt"`
}

// NoteUpdate is the body of the update endpoint.
type NoteUpdate struct {
	ID      ID     `json:"id"`
	Content string `json:"content"`
	Title   string `json:"title"`
}

// Credentials is the sign-in request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
