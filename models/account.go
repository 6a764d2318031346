package models

// AccountProfile is the placeholder shown on the account view once logged in.
// It is the same for every session whatever was typed into the form.
type AccountProfile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	MemberSince string `json:"member_since"`
	LastLogin   string `json:"last_login"`
	Insight     string `json:"insight"`
}

// DemoAccount returns the placeholder profile.
func DemoAccount() AccountProfile {
	return AccountProfile{
		Name:        "John Doe",
		Email:       "john.doe@example.com",
		MemberSince: "January 1, 2023",
		LastLogin:   "Today at 9:00 AM",
		Insight: "Based on your recent activity, we recommend exploring our new precision irrigation feature. " +
			"It could help you reduce water usage by up to 20% while maintaining crop health.",
	}
}
