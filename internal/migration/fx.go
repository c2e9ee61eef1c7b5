package migration

import (
	auditdomain "github.com/smallbiznis/dealdesk/internal/audit/domain"
	"github.com/smallbiznis/dealdesk/internal/config"
	contractdomain "github.com/smallbiznis/dealdesk/internal/contract/domain"
	templatedomain "github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
	customerdomain "github.com/smallbiznis/dealdesk/internal/customer/domain"
	quotedomain "github.com/smallbiznis/dealdesk/internal/quote/domain"
	signupdomain "github.com/smallbiznis/dealdesk/internal/signup/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&customerdomain.Customer{},
			&quotedomain.Quote{},
			&quotedomain.QuoteLineItem{},
			&contractdomain.Contract{},
			&templatedomain.ContractTemplate{},
			&signupdomain.User{},
			&signupdomain.OrganizationMember{},
			&signupdomain.SignupRequest{},
			&auditdomain.AuditLog{},
		)
	}),
)
