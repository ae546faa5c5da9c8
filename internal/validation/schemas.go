package validation

const (
	nonEmptyDefault = "String must contain at least 1 character(s)"

	passwordTooShort = "Password must be at least 6 characters long"
	passwordTooLong  = "Password must be at most 16 characters long"
	passwordWeak     = "Password must contain at least one uppercase letter, one lowercase letter, number and one special character."
	passwordMismatch = "Passwords do not match"
	invalidEmail     = "Invalid email address"

	// MessageInvalidID is returned for malformed path identifiers.
	MessageInvalidID = "Invalid ID format"
)

var (
	ImageMIMETypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	VideoMIMETypes = []string{"video/mp4", "video/webm", "video/quicktime", "video/x-matroska", "video/ogg"}
)

// Limits bounds uploaded media.
type Limits struct {
	MaxImageBytes int64
	MaxVideoBytes int64
}

// DefaultLimits returns 5 MiB images and 200 MiB videos.
func DefaultLimits() Limits {
	return Limits{MaxImageBytes: 5 << 20, MaxVideoBytes: 200 << 20}
}

// Schemas holds every request schema served by the API.
type Schemas struct {
	Register       Schema
	Login          Schema
	RefreshToken   Schema
	ChangePassword Schema
	ForgotPassword Schema
	ResetPassword  Schema

	UpdateAccount Schema
	UpdateAvatar  Schema
	UpdateCover   Schema

	CreateVideo  Schema
	UpdateVideo  Schema
	SearchVideos Schema

	CreateComment Schema
	UpdateComment Schema

	CreateTweet  Schema
	UpdateTweet  Schema
	SearchTweets Schema

	CreatePlaylist Schema
	UpdatePlaylist Schema

	DashboardStats  Schema
	DashboardVideos Schema
}

func passwordRules() []Rule {
	return []Rule{
		MinLen(6, passwordTooShort),
		MaxLen(16, passwordTooLong),
		StrongPassword(passwordWeak),
	}
}

func fullnameRules() []Rule {
	return []Rule{
		MinLen(6, "Fullname must be at least 6 characters long"),
		MaxLen(15, "Fullname must be at most 15 characters long"),
	}
}

func usernameRules() []Rule {
	return []Rule{
		NonEmpty(nonEmptyDefault),
		MaxLen(12, "Username must be at most 12 characters long"),
	}
}

func commentContent() Field {
	return Required("content",
		NonEmpty("Comment content cannot be empty"),
		MaxLen(500, "Comment cannot exceed 500 characters"),
	)
}

func tweetContent() Field {
	return Required("content",
		NonEmpty("Tweet content cannot be empty"),
		MaxLen(200, "Tweet cannot exceed 200 characters"),
	)
}

func sortOrder() Field {
	return Optional("sortOrder", OneOf("Sort order must be one of: asc, desc", "asc", "desc"))
}

// NewSchemas builds the schemas with the given upload limits.
func NewSchemas(limits Limits) Schemas {
	image := File(FileOptions{MaxBytes: limits.MaxImageBytes, MIMETypes: ImageMIMETypes})
	video := File(FileOptions{MaxBytes: limits.MaxVideoBytes, MIMETypes: VideoMIMETypes})

	title := []Rule{
		NonEmpty("Title is required"),
		MaxLen(60, "Title must be at most 60 characters long"),
	}
	description := []Rule{
		NonEmpty("Description is required"),
		MaxLen(160, "Description must be at most 160 characters long"),
	}
	isPublished := Boolean("isPublished must be a boolean")
	playlistName := []Rule{
		NonEmpty("Playlist name is required"),
		MaxLen(100, "Name too long"),
	}
	playlistDescription := MaxLen(500, "Description too long")

	return Schemas{
		Register: NewSchema(
			Required("username", usernameRules()...),
			Required("fullname", fullnameRules()...),
			Required("email", NonEmpty(nonEmptyDefault), Email(invalidEmail)),
			Required("password", passwordRules()...),
			Optional("avatar", image),
			Optional("coverImage", image),
		),
		Login: NewSchema(
			Optional("username", String()),
			Optional("email", String()),
			Required("password", NonEmpty("Password is required")),
		).With(RequireOneOf("username", "email")),
		RefreshToken: NewSchema(
			Required("refreshToken", NonEmpty(nonEmptyDefault)),
		),
		ChangePassword: NewSchema(
			Required("currentPassword", NonEmpty("Current password is required")),
			Required("newPassword", passwordRules()...),
			Optional("confirmPassword", EqualsField("newPassword", passwordMismatch)),
		),
		ForgotPassword: NewSchema(
			Required("email", NonEmpty(nonEmptyDefault), Email(invalidEmail)),
		),
		ResetPassword: NewSchema(
			Required("token", NonEmpty("Reset token is required")),
			Required("newPassword", passwordRules()...),
			Optional("confirmPassword", EqualsField("newPassword", passwordMismatch)),
		),

		UpdateAccount: NewSchema(
			Optional("fullname", fullnameRules()...),
			Optional("email", Email(invalidEmail)),
			Optional("username", usernameRules()...),
		),
		UpdateAvatar: NewSchema(Required("avatar", image)),
		UpdateCover:  NewSchema(Required("coverImage", image)),

		CreateVideo: NewSchema(
			Required("title", title...),
			Required("description", description...),
			Optional("isPublished", isPublished),
			Required("videoFile", video),
			Optional("thumbnail", image),
		),
		UpdateVideo: NewSchema(
			Optional("title", title...),
			Optional("description", description...),
			Optional("isPublished", isPublished),
			Optional("thumbnail", image),
		),
		SearchVideos: NewSchema(
			Optional("query", String()),
			Optional("sortBy", OneOf("Sort field must be one of: createdAt, viewCount, likeCount, duration",
				"createdAt", "viewCount", "likeCount", "duration")),
			sortOrder(),
			Optional("userId", UUID("Invalid user ID format")),
		),

		CreateComment: NewSchema(
			Required("videoId", UUID("Invalid video ID format")),
			commentContent(),
			Optional("parentCommentId", UUID("Invalid parent comment ID format")),
		),
		UpdateComment: NewSchema(commentContent()),

		CreateTweet: NewSchema(tweetContent()),
		UpdateTweet: NewSchema(tweetContent()),
		SearchTweets: NewSchema(
			Optional("query", String()),
			Optional("sortBy", OneOf("Sort field must be one of: createdAt, likeCount", "createdAt", "likeCount")),
			sortOrder(),
			Optional("userId", UUID("Invalid user ID format")),
		),

		CreatePlaylist: NewSchema(
			Required("name", playlistName...),
			Optional("description", playlistDescription),
		),
		UpdatePlaylist: NewSchema(
			Optional("name", playlistName...),
			Optional("description", playlistDescription),
		),

		DashboardStats: NewSchema(
			Optional("startDate", Date("Invalid start date")),
			Optional("endDate", Date("Invalid end date")),
			Optional("period", OneOf("Period must be one of: 7d, 30d, 90d, 1y, all", "7d", "30d", "90d", "1y", "all")),
		),
		DashboardVideos: NewSchema(
			Optional("isPublished", isPublished),
		),
	}
}

// ID checks a path identifier. message defaults to "Invalid ID format".
func ID(name, value, message string) error {
	if message == "" {
		message = MessageInvalidID
	}
	if !IsUUID(value) {
		return Invalid(name, message)
	}
	return nil
}
