package users

import (
	"context"

	"github.com/learnhub/user-service/internal/server/models"
)

// Repository is the credential store contract. Implementations must map a
// missing row to common.ErrorNotFound and duplicate unique identifiers to
// common.ErrorEmailTaken / common.ErrorUsernameTaken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListActive(ctx context.Context, role string, offset, limit int) ([]*models.User, error)
	CountActive(ctx context.Context, role string) (int64, error)
}
