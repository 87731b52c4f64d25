/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/common"
	"balance-sheet-go/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

// seedBalanceSheet opens a session for the new user and applies the seed file
func seedBalanceSheet(ctx context.Context, services *common.Services, userId, seedFile string) (*balancesheet.Session, error) {
	seed, err := common.LoadSeedConfig(seedFile)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Seed configuration loaded",
		zap.String("file", seedFile),
		zap.Int("assets", len(seed.Assets)),
		zap.Int("liabilities", len(seed.Liabilities)))

	session := balancesheet.NewSession(userId, services.SessionDeps())
	if err := session.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load balance sheet: %w", err)
	}
	if err := common.ApplySeed(ctx, session, seed); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}
	return session, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	seedFlag := flag.String("seed", "", "Optional YAML file with starting assets and liabilities")
	flag.Parse()

	// Validate required flags
	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}

	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}

	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	zap.L().Info("Starting user creation process",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	// Generate UUID for the new user
	userId := uuid.New().String()

	zap.L().Info("Creating user in database",
		zap.String("id", userId),
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	user, err := services.DbService.CreateUser(ctx, userId, *nameFlag, *emailFlag)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			zap.L().Fatal("User already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	common.PrintCard("USER CREATED", common.DefaultWidth,
		common.Field{Label: "ID", Value: user.Id},
		common.Field{Label: "Name", Value: user.Name},
		common.Field{Label: "Email", Value: user.Email})
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", user.Id))

	if *seedFlag == "" {
		fmt.Println("No --seed file given, balance sheet starts empty")
		return
	}

	session, err := seedBalanceSheet(ctx, services, user.Id, *seedFlag)
	if err != nil {
		zap.L().Fatal("Failed to seed balance sheet", zap.String("user_id", user.Id), zap.Error(err))
	}

	view := session.View()
	common.PrintCard("BALANCE SHEET SEEDED", common.DefaultWidth,
		common.Field{Label: "Assets", Value: fmt.Sprintf("%d (%s)", len(view.Assets), view.TotalAssets.StringFixed(2))},
		common.Field{Label: "Liabilities", Value: fmt.Sprintf("%d (%s)", len(view.Liabilities), view.TotalLiabilities.StringFixed(2))},
		common.Field{Label: "Net worth", Value: view.NetWorth.StringFixed(2)},
		common.Field{Label: "Auto-update", Value: strconv.FormatBool(view.Settings.AutoUpdateEnabled)})
	fmt.Println()
}
