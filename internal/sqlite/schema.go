package sqlite

// Schema DDL for all tables. Timestamps are TEXT in timeLayout (UTC, fixed
// width) so that string comparison orders them; calendar dates use dateLayout.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createContacts = `CREATE TABLE IF NOT EXISTS contacts (
    contact_id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    emails TEXT NOT NULL DEFAULT '[]',
    phones TEXT NOT NULL DEFAULT '[]',
    whatsapp_number TEXT NOT NULL DEFAULT '',
    instagram_handle TEXT NOT NULL DEFAULT '',
    company TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    address TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    birthday TEXT,
    anniversary TEXT,
    profile_picture TEXT NOT NULL DEFAULT '',
    last_contacted_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (owner_id) REFERENCES users(user_id)
);`

	createMeetings = `CREATE TABLE IF NOT EXISTS meetings (
    meeting_id TEXT PRIMARY KEY,
    contact_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    created_by TEXT NOT NULL,
    meeting_date TEXT NOT NULL,
    medium TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    outcome TEXT NOT NULL DEFAULT '',
    followup_date TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (contact_id) REFERENCES contacts(contact_id),
    FOREIGN KEY (user_id) REFERENCES users(user_id)
);`

	createReminders = `CREATE TABLE IF NOT EXISTS reminders (
    reminder_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    contact_id TEXT NOT NULL,
    meeting_id TEXT,
    kind TEXT NOT NULL,
    status TEXT NOT NULL,
    scheduled_at TEXT NOT NULL,
    message TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(user_id),
    FOREIGN KEY (contact_id) REFERENCES contacts(contact_id),
    FOREIGN KEY (meeting_id) REFERENCES meetings(meeting_id)
);`

	createShares = `CREATE TABLE IF NOT EXISTS shares (
    share_id TEXT PRIMARY KEY,
    contact_id TEXT NOT NULL,
    owner_user_id TEXT NOT NULL,
    shared_with_user_id TEXT NOT NULL,
    permission TEXT NOT NULL,
    expires_at TEXT,
    note TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    FOREIGN KEY (contact_id) REFERENCES contacts(contact_id),
    FOREIGN KEY (owner_user_id) REFERENCES users(user_id),
    FOREIGN KEY (shared_with_user_id) REFERENCES users(user_id)
);`
)

// Index DDL for common queries.
const (
	idxContactsOwner    = `CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_id);`
	idxMeetingsContact  = `CREATE INDEX IF NOT EXISTS idx_meetings_contact ON meetings(contact_id, meeting_date);`
	idxMeetingsUser     = `CREATE INDEX IF NOT EXISTS idx_meetings_user ON meetings(user_id, meeting_date);`
	idxRemindersUser    = `CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id, status, scheduled_at);`
	idxRemindersContact = `CREATE INDEX IF NOT EXISTS idx_reminders_contact ON reminders(contact_id);`
	idxRemindersMeeting = `CREATE INDEX IF NOT EXISTS idx_reminders_meeting ON reminders(meeting_id);`
	idxSharesUnique     = `CREATE UNIQUE INDEX IF NOT EXISTS idx_shares_contact_recipient ON shares(contact_id, shared_with_user_id);`
	idxSharesOwner      = `CREATE INDEX IF NOT EXISTS idx_shares_owner ON shares(owner_user_id);`
	idxSharesRecipient  = `CREATE INDEX IF NOT EXISTS idx_shares_recipient ON shares(shared_with_user_id, expires_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createUsers,
	createContacts,
	createMeetings,
	createReminders,
	createShares,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxContactsOwner,
	idxMeetingsContact,
	idxMeetingsUser,
	idxRemindersUser,
	idxRemindersContact,
	idxRemindersMeeting,
	idxSharesUnique,
	idxSharesOwner,
	idxSharesRecipient,
}
