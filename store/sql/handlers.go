package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func siteHandlers() repository.ModelHandlers[*siteRecord] {
	return repository.ModelHandlers[*siteRecord]{
		NewRecord: func() *siteRecord { return &siteRecord{} },
		GetID: func(record *siteRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *siteRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *siteRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func integrationHandlers() repository.ModelHandlers[*integrationRecord] {
	return repository.ModelHandlers[*integrationRecord]{
		NewRecord: func() *integrationRecord { return &integrationRecord{} },
		GetID: func(record *integrationRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *integrationRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *integrationRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func keywordHandlers() repository.ModelHandlers[*keywordRecord] {
	return repository.ModelHandlers[*keywordRecord]{
		NewRecord: func() *keywordRecord { return &keywordRecord{} },
		GetID: func(record *keywordRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *keywordRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *keywordRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func leadFormHandlers() repository.ModelHandlers[*leadFormRecord] {
	return repository.ModelHandlers[*leadFormRecord]{
		NewRecord: func() *leadFormRecord { return &leadFormRecord{} },
		GetID: func(record *leadFormRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *leadFormRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *leadFormRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func leadSubmissionHandlers() repository.ModelHandlers[*leadSubmissionRecord] {
	return repository.ModelHandlers[*leadSubmissionRecord]{
		NewRecord: func() *leadSubmissionRecord { return &leadSubmissionRecord{} },
		GetID: func(record *leadSubmissionRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *leadSubmissionRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *leadSubmissionRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func oauthAppHandlers() repository.ModelHandlers[*oauthAppRecord] {
	return repository.ModelHandlers[*oauthAppRecord]{
		NewRecord: func() *oauthAppRecord { return &oauthAppRecord{} },
		GetID: func(record *oauthAppRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *oauthAppRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *oauthAppRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
