// SPDX-License-Identifier: ice License 1.0

package auth

func (t *Token) IsRefresh() bool {
	return t.Role == ""
}

func (t *Token) IsAdmin() bool {
	return t.Role == RoleAdmin
}

// CanManage reports whether the holder may act on userID's account: admins on any account, users on their own.
func (t *Token) CanManage(userID int64) bool {
	if t.IsRefresh() {
		return false
	}

	return t.IsAdmin() || t.UserID == userID
}
