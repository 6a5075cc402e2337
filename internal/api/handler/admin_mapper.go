package handler

import "github.com/colink/gateway/internal/core/domain"

// --- Domain → Response ---

func toUserListItem(u *domain.User) userListItem {
	return userListItem{
		ID:                u.ID,
		ExternalSubjectID: u.ExternalSubjectID,
		Username:          u.Username,
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		Role:              string(u.Role),
		Status:            string(u.Status),
		CreatedAt:         u.CreatedAt,
		LastSeenAt:        u.LastSeenAt,
	}
}

func toUsersListResponse(users []*domain.User) usersListResponse {
	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, toUserListItem(u))
	}
	return usersListResponse{Users: items, Total: len(items)}
}
