// Package snapshot exports a store to JSONL files and imports them back.
// One file per entity type is written to the target directory; import
// upserts the records in dependency order inside a single transaction.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// File names inside a snapshot directory.
const (
	UsersFile     = "users.jsonl"
	ContactsFile  = "contacts.jsonl"
	MeetingsFile  = "meetings.jsonl"
	RemindersFile = "reminders.jsonl"
	SharesFile    = "shares.jsonl"
)

// Counts reports how many records of each type were written or read.
type Counts struct {
	Users     int `json:"users"`
	Contacts  int `json:"contacts"`
	Meetings  int `json:"meetings"`
	Reminders int `json:"reminders"`
	Shares    int `json:"shares"`
}

type dataset struct {
	users     []*types.User
	contacts  []*types.Contact
	meetings  []*types.Meeting
	reminders []*types.Reminder
	shares    []*types.Share
}

// Export writes every entity in store to dir, creating dir if needed.
func Export(ctx context.Context, store types.Store, dir string) (Counts, error) {
	var ds dataset
	err := store.View(ctx, func(tx types.Tx) error {
		users, err := tx.Users().Fetch(ctx)
		if err != nil {
			return err
		}
		ds.users = users
		for _, u := range users {
			contacts, err := tx.Contacts().FetchByOwner(ctx, u.UserID)
			if err != nil {
				return err
			}
			meetings, err := tx.Meetings().FetchByUser(ctx, u.UserID)
			if err != nil {
				return err
			}
			reminders, err := tx.Reminders().FetchByUser(ctx, u.UserID, "")
			if err != nil {
				return err
			}
			shares, err := tx.Shares().FetchByOwner(ctx, u.UserID)
			if err != nil {
				return err
			}
			ds.contacts = append(ds.contacts, contacts...)
			ds.meetings = append(ds.meetings, meetings...)
			ds.reminders = append(ds.reminders, reminders...)
			ds.shares = append(ds.shares, shares...)
		}
		return nil
	})
	if err != nil {
		return Counts{}, fmt.Errorf("reading store: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Counts{}, fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := writeFile(dir, UsersFile, ds.users); err != nil {
		return Counts{}, err
	}
	if err := writeFile(dir, ContactsFile, ds.contacts); err != nil {
		return Counts{}, err
	}
	if err := writeFile(dir, MeetingsFile, ds.meetings); err != nil {
		return Counts{}, err
	}
	if err := writeFile(dir, RemindersFile, ds.reminders); err != nil {
		return Counts{}, err
	}
	if err := writeFile(dir, SharesFile, ds.shares); err != nil {
		return Counts{}, err
	}
	return ds.counts(), nil
}

// Import reads a snapshot from dir and upserts it into store. Records keep
// their IDs. Nothing is written when any record fails.
func Import(ctx context.Context, store types.Store, dir string) (Counts, error) {
	var (
		ds  dataset
		err error
	)
	if ds.users, err = readFile[types.User](dir, UsersFile); err != nil {
		return Counts{}, err
	}
	if ds.contacts, err = readFile[types.Contact](dir, ContactsFile); err != nil {
		return Counts{}, err
	}
	if ds.meetings, err = readFile[types.Meeting](dir, MeetingsFile); err != nil {
		return Counts{}, err
	}
	if ds.reminders, err = readFile[types.Reminder](dir, RemindersFile); err != nil {
		return Counts{}, err
	}
	if ds.shares, err = readFile[types.Share](dir, SharesFile); err != nil {
		return Counts{}, err
	}

	err = store.Update(ctx, func(tx types.Tx) error {
		for _, u := range ds.users {
			if _, err := tx.Users().Set(ctx, u); err != nil {
				return fmt.Errorf("user %s: %w", u.UserID, err)
			}
		}
		for _, c := range ds.contacts {
			if _, err := tx.Contacts().Set(ctx, c); err != nil {
				return fmt.Errorf("contact %s: %w", c.ContactID, err)
			}
		}
		for _, m := range ds.meetings {
			if _, err := tx.Meetings().Set(ctx, m); err != nil {
				return fmt.Errorf("meeting %s: %w", m.MeetingID, err)
			}
		}
		for _, r := range ds.reminders {
			if _, err := tx.Reminders().Set(ctx, r); err != nil {
				return fmt.Errorf("reminder %s: %w", r.ReminderID, err)
			}
		}
		for _, s := range ds.shares {
			if _, err := tx.Shares().Set(ctx, s); err != nil {
				return fmt.Errorf("share %s: %w", s.ShareID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, fmt.Errorf("importing snapshot: %w", err)
	}
	return ds.counts(), nil
}

func (ds dataset) counts() Counts {
	return Counts{
		Users:     len(ds.users),
		Contacts:  len(ds.contacts),
		Meetings:  len(ds.meetings),
		Reminders: len(ds.reminders),
		Shares:    len(ds.shares),
	}
}

func writeFile[T any](dir, name string, entities []T) error {
	records, err := marshalAll(entities)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := writeJSONL(filepath.Join(dir, name), records); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func readFile[T any](dir, name string) ([]*T, error) {
	records, err := readJSONL(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	entities, err := unmarshalAll[T](records)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return entities, nil
}
