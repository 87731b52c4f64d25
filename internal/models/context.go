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

package models

import "context"

type userContextKey struct{}

// WithUserId attaches the authenticated user id to a context.
func WithUserId(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, userContextKey{}, userId)
}

// UserIdFromContext returns the authenticated user id, or "" if absent.
func UserIdFromContext(ctx context.Context) string {
	userId, _ := ctx.Value(userContextKey{}).(string)
	return userId
}
