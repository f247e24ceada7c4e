package domain

import "github.com/Flarenzy/keygate/internal/auth"

type CreateKeyInput struct {
	UserID string
	Name   string
	Claims []auth.Claim
}

type CreateKeyRecord struct {
	UserID string
	Name   string
	Prefix string
	Hash   string
	Claims []auth.Claim
}
