package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ping-auth-server/internal/domain/auth"
	"ping-auth-server/internal/resource"
)

const clientColumns = "id, name, description, client_id, client_secret, redirect_uri, owner_id, created_at, updated_at"

type ClientRepository struct {
	db *resource.Lazy[Conn]
}

func NewClientRepository(db *resource.Lazy[Conn]) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) GetClientByClientID(ctx context.Context, clientID string) (*auth.ClientApplication, error) {
	return r.getClient(ctx, "client_id", clientID)
}

func (r *ClientRepository) GetClientByID(ctx context.Context, id int64) (*auth.ClientApplication, error) {
	return r.getClient(ctx, "id", id)
}

func (r *ClientRepository) getClient(ctx context.Context, column string, value any) (*auth.ClientApplication, error) {
	var c auth.ClientApplication
	err := r.db.With(ctx, func(db Conn) error {
		return db.QueryRow(ctx,
			"SELECT "+clientColumns+" FROM client_applications WHERE "+column+" = $1",
			value).Scan(&c.ID, &c.Name, &c.Description, &c.ClientID, &c.ClientSecretHash,
			&c.RedirectURI, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select client application by %s: %w", column, err)
	}
	return &c, nil
}

func (r *ClientRepository) CreateClient(ctx context.Context, c *auth.ClientApplication) error {
	err := r.db.With(ctx, func(db Conn) error {
		return db.QueryRow(ctx,
			"INSERT INTO client_applications (name, description, client_id, client_secret, redirect_uri, owner_id) "+
				"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at",
			c.Name, c.Description, c.ClientID, c.ClientSecretHash, c.RedirectURI, c.OwnerID).
			Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("insert client application: %w", err)
	}
	return nil
}

func (r *ClientRepository) UpdateClientSecret(ctx context.Context, id int64, secretHash string) error {
	return r.db.With(ctx, func(db Conn) error {
		tag, err := db.Exec(ctx,
			"UPDATE client_applications SET client_secret = $1, updated_at = now() WHERE id = $2",
			secretHash, id)
		if err != nil {
			return fmt.Errorf("update client secret: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return auth.ErrClientNotFound
		}
		return nil
	})
}
