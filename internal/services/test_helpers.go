package services

import (
	"context"
	"time"

	"github.com/mystic-aac/accountcenter/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	CreateFunc                  func(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByIDFunc                 func(ctx context.Context, id int64) (*models.Account, error)
	GetByUsernameFunc           func(ctx context.Context, username string) (*models.Account, error)
	ExistsByUsernameOrEmailFunc func(ctx context.Context, username, email string) (bool, bool, error)
	UpdateEmailFunc             func(ctx context.Context, id int64, email string) (*models.Account, error)
	UpdateLastLoginFunc         func(ctx context.Context, id int64, at time.Time) error
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	if m.ExistsByUsernameOrEmailFunc != nil {
		return m.ExistsByUsernameOrEmailFunc(ctx, username, email)
	}
	return false, false, nil
}

func (m *MockAccountRepository) UpdateEmail(ctx context.Context, id int64, email string) (*models.Account, error) {
	if m.UpdateEmailFunc != nil {
		return m.UpdateEmailFunc(ctx, id, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockLoginEventRepository implements LoginEventRepository for testing
type MockLoginEventRepository struct {
	RecordFunc           func(ctx context.Context, event *models.LoginEvent) error
	RecentByUsernameFunc func(ctx context.Context, username string, limit int) ([]models.LoginEvent, error)
}

func (m *MockLoginEventRepository) Record(ctx context.Context, event *models.LoginEvent) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, event)
	}
	return nil
}

func (m *MockLoginEventRepository) RecentByUsername(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	if m.RecentByUsernameFunc != nil {
		return m.RecentByUsernameFunc(ctx, username, limit)
	}
	return []models.LoginEvent{}, nil
}

// MockPlayerRepository implements PlayerRepository for testing
type MockPlayerRepository struct {
	CreateFunc        func(ctx context.Context, p *models.Player) (*models.Player, error)
	GetByIDFunc       func(ctx context.Context, id int64) (*models.Player, error)
	NameExistsFunc    func(ctx context.Context, name string) (bool, error)
	ListByAccountFunc func(ctx context.Context, accountID int64) ([]models.Player, error)
	ListFunc          func(ctx context.Context, filter models.PlayerFilter) ([]models.Player, int, error)
	UpdateFunc        func(ctx context.Context, id, editorID int64, asAdmin bool, upd models.PlayerUpdate) (*models.Player, error)
}

func (m *MockPlayerRepository) Create(ctx context.Context, p *models.Player) (*models.Player, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPlayerRepository) NameExists(ctx context.Context, name string) (bool, error) {
	if m.NameExistsFunc != nil {
		return m.NameExistsFunc(ctx, name)
	}
	return false, nil
}

func (m *MockPlayerRepository) ListByAccount(ctx context.Context, accountID int64) ([]models.Player, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	return []models.Player{}, nil
}

func (m *MockPlayerRepository) List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []models.Player{}, 0, nil
}

func (m *MockPlayerRepository) Update(ctx context.Context, id, editorID int64, asAdmin bool, upd models.PlayerUpdate) (*models.Player, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, editorID, asAdmin, upd)
	}
	return nil, models.ErrNotFound
}

// MockNewsRepository implements NewsRepository for testing
type MockNewsRepository struct {
	LatestFunc  func(ctx context.Context, limit int) ([]models.News, error)
	GetByIDFunc func(ctx context.Context, id int64) (*models.News, error)
	CreateFunc  func(ctx context.Context, news *models.News) (*models.News, error)
	UpdateFunc  func(ctx context.Context, id int64, news *models.News) (*models.News, error)
	DeleteFunc  func(ctx context.Context, id int64) error
}

func (m *MockNewsRepository) Latest(ctx context.Context, limit int) ([]models.News, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, limit)
	}
	return []models.News{}, nil
}

func (m *MockNewsRepository) GetByID(ctx context.Context, id int64) (*models.News, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockNewsRepository) Create(ctx context.Context, news *models.News) (*models.News, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, news)
	}
	return nil, models.ErrInternalServer
}

func (m *MockNewsRepository) Update(ctx context.Context, id int64, news *models.News) (*models.News, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, news)
	}
	return nil, models.ErrNotFound
}

func (m *MockNewsRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockSessionCounter implements SessionCounter for testing
type MockSessionCounter struct {
	CountActiveFunc func(ctx context.Context) (int, error)
}

func (m *MockSessionCounter) CountActive(ctx context.Context) (int, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx)
	}
	return 0, nil
}

// NewTestAccount creates an active USER account for testing
func NewTestAccount(id int64, username, email string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
