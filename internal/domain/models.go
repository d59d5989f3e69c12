package domain

import "time"

// Game is a read-only entry of the static game catalog.
type Game struct {
	ID             int64    `json:"id"`
	AppID          int64    `json:"appid"`
	Name           string   `json:"name"`
	Developer      string   `json:"developer"`
	Publisher      string   `json:"publisher"`
	Rate           float64  `json:"rate"`
	Windows        bool     `json:"windows"`
	MacOS          bool     `json:"macos"`
	Linux          bool     `json:"linux"`
	SteamDeck      bool     `json:"steamdeck"`
	Tags           []string `json:"tags"`
	ReleaseYear    int      `json:"releaseYear,omitempty"`
	ReleaseMonth   int      `json:"releaseMonth,omitempty"`
	CurrentPlayers int64    `json:"currentPlayers"`
	Peak24h        int64    `json:"peak24h"`
	AllTimePeak    int64    `json:"allTimePeak"`
}

// Question is a single multiple choice question of a quiz.
type Question struct {
	ID            int      `json:"id" bson:"id"`
	Text          string   `json:"text" bson:"text"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer int      `json:"correctAnswer" bson:"correctAnswer"`
	Image         string   `json:"image,omitempty" bson:"image,omitempty"`
}

// Quiz is a titled set of questions about a game with community vote counters.
type Quiz struct {
	ID          int64      `json:"id" bson:"_id"`
	GameID      int64      `json:"gameId" bson:"gameId"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	CoverImage  string     `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
	Questions   []Question `json:"questions" bson:"questions"`
	Upvotes     int        `json:"upvotes" bson:"upvotes"`
	Downvotes   int        `json:"downvotes" bson:"downvotes"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// QuizUpdate carries the fields of a partial quiz update; nil fields are left untouched.
type QuizUpdate struct {
	GameID      *int64      `json:"gameId,omitempty"`
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	CoverImage  *string     `json:"coverImage,omitempty"`
	Questions   *[]Question `json:"questions,omitempty"`
}

// VoteDirection is a user's stance on a quiz. The zero value means no vote.
type VoteDirection string

const (
	VoteNone VoteDirection = ""
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is one of the known directions.
func (d VoteDirection) Valid() bool {
	return d == VoteNone || d == VoteUp || d == VoteDown
}

// Vote is the current stance of one user on one quiz.
type Vote struct {
	UserID    int64         `json:"userId"`
	QuizID    int64         `json:"quizId"`
	Direction VoteDirection `json:"vote"`
}

// Role separates regular users from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account. Password holds a bcrypt hash for accounts created
// by this service and may hold plaintext for legacy seed records.
type User struct {
	ID        int64     `json:"id" bson:"_id"`
	Username  string    `json:"username" bson:"username"`
	Email     string    `json:"email" bson:"email"`
	Password  string    `json:"password,omitempty" bson:"password"`
	Role      Role      `json:"role" bson:"role"`
	Avatar    string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Public returns a copy of the user without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanPlay reports whether the user may take quizzes and vote.
func (u User) CanPlay() bool {
	return u.Role == RoleUser || u.Role == RoleAdmin
}

// UserUpdate carries the fields of a partial user update; nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Role     *Role   `json:"role,omitempty"`
}

// QuizResult is an immutable record of one completed quiz attempt.
type QuizResult struct {
	ID             int64     `json:"id" bson:"_id"`
	UserID         int64     `json:"userId" bson:"userId"`
	Username       string    `json:"username" bson:"username"`
	QuizID         int64     `json:"quizId" bson:"quizId"`
	Score          int       `json:"score" bson:"score"`
	TotalQuestions int       `json:"totalQuestions" bson:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt" bson:"completedAt"`
}

// LeaderboardEntry is the per-user aggregate of quiz results.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	UserID       int64   `json:"userId"`
	Username     string  `json:"username"`
	Avatar       string  `json:"avatar,omitempty"`
	TotalScore   int     `json:"totalScore"`
	TotalQuizzes int     `json:"totalQuizzes"`
	AverageScore float64 `json:"averageScore"`
}

// AnswerRecord is one answered question inside a quiz session.
type AnswerRecord struct {
	QuestionID  int  `json:"questionId"`
	ChosenIndex int  `json:"chosenIndex"`
	IsCorrect   bool `json:"isCorrect"`
}
