package server

import "github.com/google/uuid"

type UniqueIdGenerator interface {
	Generate() string
}

type UUIDGen struct{}

func (UUIDGen) Generate() string {
	return uuid.NewString()
}
