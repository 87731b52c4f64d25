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

package common

import (
	"context"
	"fmt"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id    string
	Name  string
	Email string
}

// InitializeUsers resolves the users a command operates on. A user id or an
// email selects a single user; with neither, every user is returned.
func InitializeUsers(ctx context.Context, dbService store.LedgerStore, userId, emailFilter string) ([]UserInfo, error) {
	var users []UserInfo

	switch {
	case userId != "":
		zap.L().Info("Looking up user by id", zap.String("user_id", userId))
		user, err := dbService.GetUserById(ctx, userId)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, toUserInfo(*user))
	case emailFilter != "":
		zap.L().Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := dbService.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, toUserInfo(*user))
	default:
		allUsers, err := dbService.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range allUsers {
			users = append(users, toUserInfo(u))
		}
	}

	zap.L().Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func toUserInfo(u models.User) UserInfo {
	return UserInfo{Id: u.Id, Name: u.Name, Email: u.Email}
}
