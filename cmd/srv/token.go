package main

import (
	"fmt"

	"github.com/tonlotto/backend/internal/model"
	"github.com/tonlotto/backend/pkg/jwt"
	"github.com/urfave/cli/v2"
)

func (s *srv) startToken(cctx *cli.Context) error {
	s.loadConfig()

	id := cctx.String("id")
	engine := jwt.NewEngine[model.AccessToken](
		s.configs.Auth.TokenSecret, s.configs.Auth.TokenExpiration)

	token, err := engine.Generate(id, model.AccessToken{ID: id, Role: model.RoleAdmin})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
