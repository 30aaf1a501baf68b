package logging

import (
	"context"
	"log/slog"
)

// Reason codes for failed login security events.
const (
	ReasonMissingCredentials = "missing_credentials"
	ReasonInvalidCredentials = "invalid_credentials"
)

// AuditLogger emits the domain events for every mutating action. Each action
// produces an audit-trail record (action, resource, actor, changes) on the
// audit channel and a business event with analytics-safe fields on the
// application channel. Security-relevant outcomes additionally hit the
// security channel.
type AuditLogger struct {
	ch *Channels
}

// NewAuditLogger returns an AuditLogger bound to the given channels,
// falling back to Default when ch is nil.
func NewAuditLogger(ch *Channels) *AuditLogger {
	if ch == nil {
		ch = Default
	}
	return &AuditLogger{ch: ch}
}

// SecurityEvent records a security-relevant occurrence on the security channel.
func (l *AuditLogger) SecurityEvent(ctx context.Context, eventType, description string, data map[string]any) {
	l.ch.Security.WarnContext(ctx, "Security Event: "+eventType,
		slog.String("event_type", eventType),
		slog.String("description", description),
		slog.Any("additional_data", data),
	)
}

// AuditEvent records a compliance-trail entry for a state-changing action.
func (l *AuditLogger) AuditEvent(ctx context.Context, action, resourceType, resourceID string, actorID uint, changes map[string]any) {
	l.ch.Audit.InfoContext(ctx, "Audit: "+action+" "+resourceType,
		slog.String("action", action),
		slog.String("resource_type", resourceType),
		slog.String("resource_id", resourceID),
		slog.Uint64("actor_id", uint64(actorID)),
		slog.Any("changes", changes),
	)
}

// BusinessEvent records an analytics event on the application channel.
func (l *AuditLogger) BusinessEvent(ctx context.Context, event string, details map[string]any) {
	l.ch.App.InfoContext(ctx, "Business Event: "+event,
		slog.String("event_type", "business"),
		slog.String("event", event),
		slog.Any("details", details),
	)
}

// PerformanceMetric records an operation duration on the performance channel.
func (l *AuditLogger) PerformanceMetric(ctx context.Context, operation string, durationMS float64, metrics map[string]any) {
	l.ch.Perf.InfoContext(ctx, "Performance: "+operation,
		slog.String("operation", operation),
		slog.Float64("duration_ms", durationMS),
		slog.Any("metrics", metrics),
	)
}

// LoginAttempt records a login outcome. Successful logins produce an audit
// entry; failures produce a security event carrying the reason code. The
// raw password is never part of either record.
func (l *AuditLogger) LoginAttempt(ctx context.Context, username string, userID uint, success bool, failureReason string) {
	if success {
		l.AuditEvent(ctx, "login", "user_session", "", userID, map[string]any{"status": "logged_in"})
		l.ch.App.InfoContext(ctx, "User login successful: "+username,
			slog.String("event_type", "login_success"),
			slog.String("username", username),
		)
		return
	}
	l.SecurityEvent(ctx, "failed_login", "Failed login attempt for username: "+username, map[string]any{
		"username":       username,
		"failure_reason": failureReason,
	})
}

// Logout records a session teardown.
func (l *AuditLogger) Logout(ctx context.Context, userID uint, username string) {
	l.AuditEvent(ctx, "logout", "user_session", "", userID, map[string]any{"status": "logged_out"})
	l.ch.App.InfoContext(ctx, "User logout: "+username,
		slog.String("event_type", "logout"),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("username", username),
	)
}

// Registration records a new account creation.
func (l *AuditLogger) Registration(ctx context.Context, userID uint, username string) {
	l.AuditEvent(ctx, "create", "user", itoa(userID), userID, map[string]any{
		"username": username,
		"status":   "registered",
	})
	l.BusinessEvent(ctx, "user_registered", map[string]any{
		"user_id":  userID,
		"username": username,
	})
}

// PostCreated records a post creation. Only the caption length is logged,
// never the caption text.
func (l *AuditLogger) PostCreated(ctx context.Context, postID, userID uint, captionLength int) {
	l.AuditEvent(ctx, "create", "post", itoa(postID), userID, map[string]any{
		"caption_length": captionLength,
	})
	l.BusinessEvent(ctx, "post_created", map[string]any{
		"post_id":        postID,
		"user_id":        userID,
		"caption_length": captionLength,
	})
}

// PostEdited records a caption change without duplicating user content.
func (l *AuditLogger) PostEdited(ctx context.Context, postID, userID uint, oldCaption, newCaption string) {
	l.AuditEvent(ctx, "update", "post", itoa(postID), userID, map[string]any{
		"old_caption_length": len(oldCaption),
		"new_caption_length": len(newCaption),
	})
	l.BusinessEvent(ctx, "post_edited", map[string]any{
		"post_id":         postID,
		"user_id":         userID,
		"caption_changed": oldCaption != newCaption,
	})
}

// PostDeleted records a post deletion together with the engagement removed
// by the cascade.
func (l *AuditLogger) PostDeleted(ctx context.Context, postID, userID uint, likesCount, commentsCount int) {
	l.AuditEvent(ctx, "delete", "post", itoa(postID), userID, map[string]any{
		"likes_count":    likesCount,
		"comments_count": commentsCount,
	})
	l.BusinessEvent(ctx, "post_deleted", map[string]any{
		"post_id": postID,
		"user_id": userID,
		"engagement_lost": map[string]any{
			"likes":    likesCount,
			"comments": commentsCount,
		},
	})
}

// LikeAction records a like or unlike. action is "like" or "unlike".
func (l *AuditLogger) LikeAction(ctx context.Context, postID, userID uint, action string) {
	l.AuditEvent(ctx, action, "like", itoa(userID)+"_"+itoa(postID), userID, map[string]any{
		"post_id": postID,
		"action":  action,
	})
	l.BusinessEvent(ctx, "post_"+action+"d", map[string]any{
		"post_id":         postID,
		"user_id":         userID,
		"engagement_type": "like",
	})
}

// CommentCreated records a comment creation. Only the text length is logged.
func (l *AuditLogger) CommentCreated(ctx context.Context, commentID, postID, userID uint, textLength int) {
	l.AuditEvent(ctx, "create", "comment", itoa(commentID), userID, map[string]any{
		"post_id":     postID,
		"text_length": textLength,
	})
	l.BusinessEvent(ctx, "comment_created", map[string]any{
		"comment_id":      commentID,
		"post_id":         postID,
		"user_id":         userID,
		"text_length":     textLength,
		"engagement_type": "comment",
	})
}

// CommentEdited records a comment text change.
func (l *AuditLogger) CommentEdited(ctx context.Context, commentID, userID uint, oldText, newText string) {
	l.AuditEvent(ctx, "update", "comment", itoa(commentID), userID, map[string]any{
		"old_text_length": len(oldText),
		"new_text_length": len(newText),
	})
	l.BusinessEvent(ctx, "comment_edited", map[string]any{
		"comment_id":   commentID,
		"user_id":      userID,
		"text_changed": oldText != newText,
	})
}

// CommentDeleted records a comment deletion.
func (l *AuditLogger) CommentDeleted(ctx context.Context, commentID, postID, userID uint) {
	l.AuditEvent(ctx, "delete", "comment", itoa(commentID), userID, map[string]any{
		"post_id": postID,
	})
	l.BusinessEvent(ctx, "comment_deleted", map[string]any{
		"comment_id": commentID,
		"post_id":    postID,
		"user_id":    userID,
	})
}

// FollowAction records a follow or unfollow edge change. action is "follow"
// or "unfollow".
func (l *AuditLogger) FollowAction(ctx context.Context, followerID, followedID uint, action string) {
	l.AuditEvent(ctx, action, "follow_relationship", itoa(followerID)+"_"+itoa(followedID), followerID, map[string]any{
		"followed_user_id": followedID,
		"action":           action,
	})
	l.BusinessEvent(ctx, "user_"+action+"ed", map[string]any{
		"follower_id":         followerID,
		"followed_id":         followedID,
		"relationship_action": action,
	})
}

// UnauthorizedAccess records an ownership-check failure: who tried what on
// which resource, and who actually owns it.
func (l *AuditLogger) UnauthorizedAccess(ctx context.Context, resourceType, resourceID, attemptedAction string, userID, ownerID uint) {
	l.ch.Security.WarnContext(ctx, "Unauthorized "+resourceType+" access attempt",
		slog.String("event_type", "unauthorized_access"),
		slog.String("resource_type", resourceType),
		slog.String("resource_id", resourceID),
		slog.String("attempted_action", attemptedAction),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("owner_id", uint64(ownerID)),
	)
}

// SuspiciousActivity records anomalous behavior worth review.
func (l *AuditLogger) SuspiciousActivity(ctx context.Context, activityType, description string, userID uint) {
	l.SecurityEvent(ctx, "suspicious_activity", description, map[string]any{
		"activity_type": activityType,
		"user_id":       userID,
	})
}

// DatabaseQuery records query timing on the performance channel.
func (l *AuditLogger) DatabaseQuery(ctx context.Context, queryType, sql string, durationMS float64, recordCount int64) {
	l.PerformanceMetric(ctx, "db_query_"+queryType, durationMS, map[string]any{
		"sql":          sql,
		"query_type":   queryType,
		"record_count": recordCount,
	})
}
