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
	"errors"
	"flag"
	"fmt"
	"strings"

	"balance-sheet-go/internal/common"
	"balance-sheet-go/internal/config"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type transactionRequest struct {
	email       string
	txnType     models.TransactionType
	amount      decimal.Decimal
	description string
	category    string
	date        string
	externalId  string
}

func parseAndValidateFlags() (*transactionRequest, error) {
	emailFlag := flag.String("email", "", "User email (required)")
	typeFlag := flag.String("type", "", "Transaction type: income or expense (required)")
	amountFlag := flag.String("amount", "", "Positive amount (required)")
	descriptionFlag := flag.String("description", "", "Description (optional)")
	categoryFlag := flag.String("category", "", "Category (optional)")
	dateFlag := flag.String("date", "", "Transaction date YYYY-MM-DD (default: today)")
	externalIdFlag := flag.String("external-id", "", "Idempotency key (default: generated)")
	flag.Parse()

	if *emailFlag == "" || *typeFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("flags are required: --email, --type, --amount")
	}

	txnType := models.TransactionType(strings.ToLower(*typeFlag))
	if !txnType.Valid() {
		return nil, fmt.Errorf("invalid type %q, expected income or expense", *typeFlag)
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &transactionRequest{
		email:       *emailFlag,
		txnType:     txnType,
		amount:      amount,
		description: *descriptionFlag,
		category:    *categoryFlag,
		date:        *dateFlag,
		externalId:  *externalIdFlag,
	}, nil
}

func generateIdempotencyKey(userId string) string {
	userIdSegments := strings.Split(userId, "-")
	uuidSegments := strings.Split(uuid.New().String(), "-")
	return "cli-" + userIdSegments[0] + "-" + strings.Join(uuidSegments[1:], "-")
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	user, err := dbService.GetUserByEmail(ctx, req.email)
	if err != nil {
		zap.L().Fatal("User not found", zap.String("email", req.email), zap.Error(err))
	}

	if req.externalId == "" {
		req.externalId = generateIdempotencyKey(user.Id)
	}

	txn, err := dbService.InsertTransaction(ctx, store.InsertTransactionParams{
		UserId:          user.Id,
		Type:            req.txnType,
		Amount:          req.amount,
		Description:     req.description,
		Category:        req.category,
		TransactionDate: req.date,
		ExternalId:      req.externalId,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			fmt.Println("\n✓ Transaction already recorded (idempotent)")
			fmt.Printf("   External ID: %s\n\n", req.externalId)
			return
		}
		zap.L().Fatal("Failed to record transaction", zap.Error(err))
	}

	common.PrintCard("TRANSACTION RECORDED", common.DefaultWidth,
		common.Field{Label: "ID", Value: txn.Id},
		common.Field{Label: "User", Value: fmt.Sprintf("%s (%s)", user.Name, user.Email)},
		common.Field{Label: "Type", Value: string(txn.Type)},
		common.Field{Label: "Amount", Value: txn.Amount.StringFixed(2)},
		common.Field{Label: "Date", Value: txn.TransactionDate},
		common.Field{Label: "External ID", Value: txn.ExternalId})
	fmt.Println("A running server applies this to the user's balance sheet when auto-update is enabled.")
	fmt.Println()
}
