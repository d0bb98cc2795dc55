package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-seo-reports/core"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the bun-backed stores and exposes them through
// core.StoreProvider. A secret provider, when set, encrypts integration
// token payloads at rest.
type RepositoryFactory struct {
	db      *bun.DB
	secrets core.SecretProvider

	siteStore           *SiteStore
	integrationStore    *IntegrationStore
	keywordStore        *KeywordStore
	leadFormStore       *LeadFormStore
	leadSubmissionStore *LeadSubmissionStore
	oauthAppStore       *OAuthAppStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithSecretProvider installs the provider used to seal token payloads.
// Set it before BuildStores; stores built earlier keep their provider.
func (f *RepositoryFactory) WithSecretProvider(secrets core.SecretProvider) *RepositoryFactory {
	if f == nil {
		return nil
	}
	f.secrets = secrets
	if f.integrationStore != nil {
		f.integrationStore.secrets = secrets
	}
	return f
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.siteStore != nil && f.integrationStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) SiteStore() core.SiteStore {
	if f == nil {
		return nil
	}
	return f.siteStore
}

func (f *RepositoryFactory) IntegrationStore() core.IntegrationStore {
	if f == nil {
		return nil
	}
	return f.integrationStore
}

func (f *RepositoryFactory) KeywordStore() core.KeywordStore {
	if f == nil {
		return nil
	}
	return f.keywordStore
}

func (f *RepositoryFactory) LeadFormStore() core.LeadFormStore {
	if f == nil {
		return nil
	}
	return f.leadFormStore
}

func (f *RepositoryFactory) LeadSubmissionStore() core.LeadSubmissionStore {
	if f == nil {
		return nil
	}
	return f.leadSubmissionStore
}

func (f *RepositoryFactory) OAuthAppStore() core.OAuthAppStore {
	if f == nil {
		return nil
	}
	return f.oauthAppStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	siteRepo := repository.NewRepository[*siteRecord](f.db, siteHandlers())
	if validator, ok := siteRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid site repository wiring: %w", err)
		}
	}

	integrationRepo := repository.NewRepository[*integrationRecord](f.db, integrationHandlers())
	if validator, ok := integrationRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid integration repository wiring: %w", err)
		}
	}

	keywordRepo := repository.NewRepository[*keywordRecord](f.db, keywordHandlers())
	if validator, ok := keywordRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid keyword repository wiring: %w", err)
		}
	}

	leadFormRepo := repository.NewRepository[*leadFormRecord](f.db, leadFormHandlers())
	if validator, ok := leadFormRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid lead form repository wiring: %w", err)
		}
	}

	leadSubmissionRepo := repository.NewRepository[*leadSubmissionRecord](f.db, leadSubmissionHandlers())
	if validator, ok := leadSubmissionRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid lead submission repository wiring: %w", err)
		}
	}

	oauthAppRepo := repository.NewRepository[*oauthAppRecord](f.db, oauthAppHandlers())
	if validator, ok := oauthAppRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid oauth app repository wiring: %w", err)
		}
	}

	f.siteStore = &SiteStore{db: f.db, repo: siteRepo}
	f.integrationStore = &IntegrationStore{db: f.db, repo: integrationRepo, secrets: f.secrets}
	f.keywordStore = &KeywordStore{db: f.db, repo: keywordRepo}
	f.leadFormStore = &LeadFormStore{db: f.db, repo: leadFormRepo}
	f.leadSubmissionStore = &LeadSubmissionStore{db: f.db, repo: leadSubmissionRepo}
	f.oauthAppStore = &OAuthAppStore{db: f.db, repo: oauthAppRepo}

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var (
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
	_ core.SiteStore              = (*SiteStore)(nil)
	_ core.IntegrationStore       = (*IntegrationStore)(nil)
	_ core.KeywordStore           = (*KeywordStore)(nil)
	_ core.LeadFormStore          = (*LeadFormStore)(nil)
	_ core.LeadSubmissionStore    = (*LeadSubmissionStore)(nil)
	_ core.OAuthAppStore          = (*OAuthAppStore)(nil)
)
