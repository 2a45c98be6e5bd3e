package postgres

const (
	querySchema = `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	queryCreateUser = `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at;
	`
	queryGetUserByUsername = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1;
	`
)
