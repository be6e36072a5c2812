package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/projdesk/internal/config"
	"github.com/xxxsen/projdesk/internal/db"
	"github.com/xxxsen/projdesk/internal/model"
	appErr "github.com/xxxsen/projdesk/internal/pkg/errors"
	"github.com/xxxsen/projdesk/internal/pkg/jwt"
	"github.com/xxxsen/projdesk/internal/repo"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "projdesk",
		Short: "projdesk backend server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run projdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return runServer(cfg, database)
		},
	}

	var tokenUser string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			user, err := repo.NewUserRepo(database).GetByID(cmd.Context(), tokenUser)
			if err != nil {
				return fmt.Errorf("load user %s: %w", tokenUser, err)
			}
			token, err := jwt.GenerateToken(user.ID, user.CompanyID, []byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id")
	_ = tokenCmd.MarkFlagRequired("user")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "manage users",
	}
	var email, company string
	userAddCmd := &cobra.Command{
		Use:   "add",
		Short: "create a user, optionally inside a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			user, err := addUser(cmd.Context(), database, email, company)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return err
		},
	}
	userAddCmd.Flags().StringVar(&email, "email", "", "user email")
	userAddCmd.Flags().StringVar(&company, "company", "", "company name, created when missing")
	_ = userAddCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userAddCmd)

	var jobName string
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "run a background job once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()
			return runJobOnce(cmd.Context(), cfg, database, jobName)
		},
	}
	jobCmd.Flags().StringVar(&jobName, "name", "", "job name")
	_ = jobCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(runCmd, tokenCmd, userCmd, jobCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// bootstrap loads .env and config, initializes logging and opens a migrated database.
func bootstrap(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, database, nil
}

func addUser(ctx context.Context, database *sql.DB, email, companyName string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	now := time.Now().UnixMilli()
	user := &model.User{ID: uuid.NewString(), Email: email, Ctime: now}
	if companyName = strings.TrimSpace(companyName); companyName != "" {
		companies := repo.NewCompanyRepo(database)
		company, err := companies.GetByName(ctx, companyName)
		if appErr.IsNotFound(err) {
			company = &model.Company{ID: uuid.NewString(), Name: companyName, Ctime: now}
			err = companies.Create(ctx, company)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve company %s: %w", companyName, err)
		}
		user.CompanyID = company.ID
	}
	if err := repo.NewUserRepo(database).Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return user, nil
}
