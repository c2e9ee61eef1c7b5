package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/audit"
	"github.com/smallbiznis/dealdesk/internal/authorization"
	"github.com/smallbiznis/dealdesk/internal/clock"
	"github.com/smallbiznis/dealdesk/internal/config"
	"github.com/smallbiznis/dealdesk/internal/contract"
	"github.com/smallbiznis/dealdesk/internal/contracttemplate"
	"github.com/smallbiznis/dealdesk/internal/customer"
	"github.com/smallbiznis/dealdesk/internal/migration"
	"github.com/smallbiznis/dealdesk/internal/observability"
	"github.com/smallbiznis/dealdesk/internal/quote"
	"github.com/smallbiznis/dealdesk/internal/scheduler"
	"github.com/smallbiznis/dealdesk/internal/server"
	"github.com/smallbiznis/dealdesk/internal/signup"
	"github.com/smallbiznis/dealdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		audit.Module,
		authorization.Module,
		customer.Module,
		quote.Module,
		contract.Module,
		contracttemplate.Module,
		signup.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("failed to initialize snowflake node: %v", err)
	}
	return node
}
