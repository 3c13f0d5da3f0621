/*
 * This file is part of VoxDesk (https://github.com/voxdesk/voxdesk).
 * Copyright (C) 2025 VoxDesk Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package security

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidCategoryID is returned when a category identifier is malformed
	ErrInvalidCategoryID = errors.New("invalid category id")

	// categoryIDPattern restricts category identifiers to safe characters
	categoryIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// SanitizeLogInput removes newline characters to prevent log injection attacks.
// Utterance text is user-controlled and must pass through here before logging.
func SanitizeLogInput(input string) string {
	sanitized := strings.ReplaceAll(input, "\n", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// ValidateCategoryID ensures a category identifier contains only lowercase
// alphanumerics and underscores. Category IDs end up in NATS subjects and
// SQL rows, so anything else is rejected.
func ValidateCategoryID(id string) error {
	if id == "" {
		return ErrInvalidCategoryID
	}

	if !categoryIDPattern.MatchString(id) {
		return ErrInvalidCategoryID
	}

	return nil
}
