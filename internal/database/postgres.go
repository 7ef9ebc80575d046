package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"vibely/internal/models"
	"vibely/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/postgres.sql
var postgresSchema string

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

func pgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// User Repository Implementation

const pgUserColumns = `id, name, username, email, phone, profile_picture, bio, location, status, interests, password_hash, created_at`

func scanPgUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	var interests string
	err := row.Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.Phone, &user.ProfilePicture,
		&user.Bio, &user.Location, &user.Status, &interests, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Interests = decodeInterests(interests)
	return user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + pgUserColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := db.pool.Exec(ctx, query,
		user.ID, user.Name, user.Username, user.Email, user.Phone, user.ProfilePicture,
		user.Bio, user.Location, user.Status, encodeInterests(user.Interests), user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", pgError(err))
	}
	return nil
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + pgUserColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanPgUser(db.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, pgError(err)
	}
	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + pgUserColumns + ` FROM users WHERE id = $1`

	user, err := scanPgUser(db.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, pgError(err)
	}

	if user.Friends, err = db.friendIDs(ctx, id); err != nil {
		return nil, err
	}
	if user.FriendRequests, err = db.ListPendingFriendRequests(ctx, id); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (db *PostgresDB) friendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT friend_id FROM friendships WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *PostgresDB) SearchUsers(ctx context.Context, query string, limit int) ([]*models.User, error) {
	sql := `
		SELECT ` + pgUserColumns + `
		FROM users
		WHERE lower(name) LIKE $1 ESCAPE '\' OR lower(username) LIKE $1 ESCAPE '\'
		ORDER BY username
		LIMIT $2`

	rows, err := db.pool.Query(ctx, sql, likePattern(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanPgUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *PostgresDB) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET name = $2, username = $3, phone = $4, profile_picture = $5,
			bio = $6, location = $7, status = $8, interests = $9
		WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query,
		user.ID, user.Name, user.Username, user.Phone, user.ProfilePicture,
		user.Bio, user.Location, user.Status, encodeInterests(user.Interests),
	)
	if err != nil {
		return pgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.name, u.username, u.profile_picture
		FROM friendships f
		JOIN users u ON f.friend_id = u.id
		WHERE f.user_id = $1
		ORDER BY u.username`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.ProfilePicture); err != nil {
			return nil, err
		}
		friends = append(friends, s)
	}
	return friends, rows.Err()
}

func (db *PostgresDB) AddFriendship(ctx context.Context, userID, friendID string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO friendships (user_id, friend_id, created_at) VALUES ($1, $2, NOW()) ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, query, userID, friendID); err != nil {
		return pgError(err)
	}
	if _, err := tx.Exec(ctx, query, friendID, userID); err != nil {
		return pgError(err)
	}
	return tx.Commit(ctx)
}

func (db *PostgresDB) RemoveFriendship(ctx context.Context, userID, friendID string) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM friendships WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		userID, friendID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Friend Request Repository Implementation

func (db *PostgresDB) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	query := `INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := db.pool.Exec(ctx, query, req.ID, req.SenderID, req.ReceiverID, req.Status, req.CreatedAt)
	return pgError(err)
}

func (db *PostgresDB) GetFriendRequest(ctx context.Context, id string) (*models.FriendRequest, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at FROM friend_requests WHERE id = $1`

	req := &models.FriendRequest{}
	err := db.pool.QueryRow(ctx, query, id).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt)
	if err != nil {
		return nil, pgError(err)
	}
	return req, nil
}

func (db *PostgresDB) FindPendingFriendRequest(ctx context.Context, userA, userB string) (*models.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE status = 'pending'
			AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		LIMIT 1`

	req := &models.FriendRequest{}
	err := db.pool.QueryRow(ctx, query, userA, userB).Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt)
	if err != nil {
		return nil, pgError(err)
	}
	return req, nil
}

func (db *PostgresDB) ListPendingFriendRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	query := `
		SELECT r.id, r.sender_id, r.receiver_id, r.status, r.created_at,
			u.id, u.name, u.username, u.profile_picture
		FROM friend_requests r
		JOIN users u ON r.sender_id = u.id
		WHERE r.receiver_id = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC`

	rows, err := db.pool.Query(ctx, query, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var req models.FriendRequest
		var sender models.UserSummary
		if err := rows.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt,
			&sender.ID, &sender.Name, &sender.Username, &sender.ProfilePicture); err != nil {
			return nil, err
		}
		req.Sender = &sender
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (db *PostgresDB) UpdateFriendRequestStatus(ctx context.Context, id string, status models.FriendRequestStatus) error {
	tag, err := db.pool.Exec(ctx, `UPDATE friend_requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Event Repository Implementation

const pgEventColumns = `e.id, e.title, e.type, e.date, e.time, e.location, e.description, e.author_id, e.image, e.created_at`

func scanPgEvent(row pgx.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(&event.ID, &event.Title, &event.Type, &event.Date, &event.Time, &event.Location,
		&event.Description, &event.AuthorID, &event.Image, &event.CreatedAt)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (db *PostgresDB) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, title, type, date, time, location, description, author_id, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := db.pool.Exec(ctx, query, event.ID, event.Title, event.Type, event.Date, event.Time,
		event.Location, event.Description, event.AuthorID, event.Image, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", pgError(err))
	}
	return nil
}

func (db *PostgresDB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := scanPgEvent(db.pool.QueryRow(ctx, `SELECT `+pgEventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, pgError(err)
	}
	if event.JoinedUsers, err = db.eventParticipants(ctx, id); err != nil {
		return nil, err
	}
	return event, nil
}

func (db *PostgresDB) eventParticipants(ctx context.Context, eventID string) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT user_id FROM event_participants WHERE event_id = $1 ORDER BY joined_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *PostgresDB) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	events := []*models.Event{}
	for rows.Next() {
		event, err := scanPgEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		if event.JoinedUsers, err = db.eventParticipants(ctx, event.ID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (db *PostgresDB) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return db.queryEvents(ctx, `SELECT `+pgEventColumns+` FROM events e ORDER BY e.date ASC, e.created_at ASC`)
}

func (db *PostgresDB) ListJoinedEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	query := `
		SELECT ` + pgEventColumns + `
		FROM events e
		JOIN event_participants p ON p.event_id = e.id
		WHERE p.user_id = $1
		ORDER BY e.date ASC, e.created_at ASC`
	return db.queryEvents(ctx, query, userID)
}

func (db *PostgresDB) DeleteEvent(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) AddEventParticipant(ctx context.Context, eventID, userID string) error {
	query := `INSERT INTO event_participants (event_id, user_id, joined_at) VALUES ($1, $2, NOW())`
	_, err := db.pool.Exec(ctx, query, eventID, userID)
	return pgError(err)
}

func (db *PostgresDB) RemoveEventParticipant(ctx context.Context, eventID, userID string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Chatroom Repository Implementation

const pgChatroomColumns = `c.id, c.name, c.is_private, c.owner_id, c.last_message, c.last_message_at, c.created_at`

func scanPgChatroom(row pgx.Row) (*models.Chatroom, error) {
	room := &models.Chatroom{}
	var lastAt *time.Time
	err := row.Scan(&room.ID, &room.Name, &room.IsPrivate, &room.OwnerID, &room.LastMessage, &lastAt, &room.CreatedAt)
	if err != nil {
		return nil, err
	}
	room.LastMessageAt = lastAt
	return room, nil
}

func (db *PostgresDB) CreateChatroom(ctx context.Context, room *models.Chatroom, participantIDs []string) error {
	var key any
	if room.IsPrivate {
		if len(participantIDs) != 2 {
			return fmt.Errorf("private chatroom needs exactly 2 participants, got %d", len(participantIDs))
		}
		key = pairKey(participantIDs[0], participantIDs[1])
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chatrooms (id, name, is_private, owner_id, pair_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, query, room.ID, room.Name, room.IsPrivate, room.OwnerID, key, room.CreatedAt); err != nil {
		return pgError(err)
	}
	for _, userID := range participantIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chatroom_participants (chatroom_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			room.ID, userID); err != nil {
			return pgError(err)
		}
	}
	return tx.Commit(ctx)
}

func (db *PostgresDB) hydrateChatroom(ctx context.Context, room *models.Chatroom, viewerID string) error {
	query := `
		SELECT u.id, u.name, u.username, u.profile_picture, p.unread_count
		FROM chatroom_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.chatroom_id = $1
		ORDER BY u.username`

	rows, err := db.pool.Query(ctx, query, room.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	room.Participants = []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		var unread int
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.ProfilePicture, &unread); err != nil {
			return err
		}
		if s.ID == viewerID {
			room.UnreadCount = unread
		}
		room.Participants = append(room.Participants, s)
	}
	return rows.Err()
}

func (db *PostgresDB) queryChatrooms(ctx context.Context, viewerID, query string, args ...any) ([]*models.Chatroom, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	rooms := []*models.Chatroom{}
	for rows.Next() {
		room, err := scanPgChatroom(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rooms = append(rooms, room)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, room := range rooms {
		if err := db.hydrateChatroom(ctx, room, viewerID); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (db *PostgresDB) GetChatroom(ctx context.Context, id, viewerID string) (*models.Chatroom, error) {
	room, err := scanPgChatroom(db.pool.QueryRow(ctx, `SELECT `+pgChatroomColumns+` FROM chatrooms c WHERE c.id = $1`, id))
	if err != nil {
		return nil, pgError(err)
	}
	if err := db.hydrateChatroom(ctx, room, viewerID); err != nil {
		return nil, err
	}
	return room, nil
}

func (db *PostgresDB) FindPrivateChatroom(ctx context.Context, userA, userB string) (*models.Chatroom, error) {
	room, err := scanPgChatroom(db.pool.QueryRow(ctx,
		`SELECT `+pgChatroomColumns+` FROM chatrooms c WHERE c.pair_key = $1`, pairKey(userA, userB)))
	if err != nil {
		return nil, pgError(err)
	}
	if err := db.hydrateChatroom(ctx, room, userA); err != nil {
		return nil, err
	}
	return room, nil
}

func (db *PostgresDB) ListUserChatrooms(ctx context.Context, userID string) ([]*models.Chatroom, error) {
	query := `
		SELECT ` + pgChatroomColumns + `
		FROM chatrooms c
		JOIN chatroom_participants p ON p.chatroom_id = c.id
		WHERE p.user_id = $1
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC`
	return db.queryChatrooms(ctx, userID, query, userID)
}

func (db *PostgresDB) ListPublicChatrooms(ctx context.Context) ([]*models.Chatroom, error) {
	query := `SELECT ` + pgChatroomColumns + ` FROM chatrooms c WHERE c.is_private = FALSE ORDER BY c.name`
	return db.queryChatrooms(ctx, "", query)
}

func (db *PostgresDB) AddParticipant(ctx context.Context, roomID, userID string) error {
	query := `INSERT INTO chatroom_participants (chatroom_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := db.pool.Exec(ctx, query, roomID, userID)
	return pgError(err)
}

func (db *PostgresDB) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM chatroom_participants WHERE chatroom_id = $1 AND user_id = $2)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, roomID, userID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) ResetUnread(ctx context.Context, roomID, userID string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE chatroom_participants SET unread_count = 0 WHERE chatroom_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) DeleteChatroom(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM chatrooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Message Repository Implementation

func (db *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO messages (id, chatroom_id, sender_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, query, msg.ID, msg.ChatroomID, msg.Sender.ID, msg.Content, msg.CreatedAt); err != nil {
		return pgError(err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE chatrooms SET last_message = $2, last_message_at = $3 WHERE id = $1`,
		msg.ChatroomID, msg.Content, msg.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE chatroom_participants SET unread_count = unread_count + 1 WHERE chatroom_id = $1 AND user_id <> $2`,
		msg.ChatroomID, msg.Sender.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (db *PostgresDB) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT m.id, m.chatroom_id, m.content, m.created_at, u.id, u.name, u.username, u.profile_picture
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`

	msg := &models.Message{}
	err := db.pool.QueryRow(ctx, query, id).Scan(&msg.ID, &msg.ChatroomID, &msg.Content, &msg.CreatedAt,
		&msg.Sender.ID, &msg.Sender.Name, &msg.Sender.Username, &msg.Sender.ProfilePicture)
	if err != nil {
		return nil, pgError(err)
	}
	return msg, nil
}

func (db *PostgresDB) LoadRecentMessages(ctx context.Context, roomID string, limit int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.chatroom_id, m.content, m.created_at, u.id, u.name, u.username, u.profile_picture
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chatroom_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.ChatroomID, &msg.Content, &msg.CreatedAt,
			&msg.Sender.ID, &msg.Sender.Name, &msg.Sender.Username, &msg.Sender.ProfilePicture); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverseMessages(messages)
	return messages, nil
}

// Reverse to show oldest first
func reverseMessages(messages []*models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// Notification Repository Implementation

const pgNotificationSelect = `
	SELECT n.id, n.user_id, n.type, n.content, n.reference_id, n.unread, n.created_at,
		u.id, u.name, u.username, u.profile_picture
	FROM notifications n
	JOIN users u ON n.sender_id = u.id`

func scanPgNotification(row pgx.Row) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.ReferenceID, &n.Unread, &n.CreatedAt,
		&n.Sender.ID, &n.Sender.Name, &n.Sender.Username, &n.Sender.ProfilePicture)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (db *PostgresDB) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, content, sender_id, reference_id, unread, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.pool.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Content, n.Sender.ID, n.ReferenceID, n.Unread, n.CreatedAt)
	return pgError(err)
}

func (db *PostgresDB) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanPgNotification(db.pool.QueryRow(ctx, pgNotificationSelect+` WHERE n.id = $1`, id))
	if err != nil {
		return nil, pgError(err)
	}
	return n, nil
}

func (db *PostgresDB) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := db.pool.Query(ctx, pgNotificationSelect+` WHERE n.user_id = $1 ORDER BY n.created_at DESC, n.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		n, err := scanPgNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (db *PostgresDB) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `UPDATE notifications SET unread = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) DeleteNotification(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) DeleteNotificationsByReference(ctx context.Context, userID, referenceID string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND reference_id = $2`, userID, referenceID)
	return err
}
