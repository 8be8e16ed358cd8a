package directory

// Proxy path segments of the directory operations.
const (
	PathWriteUser       = "bdays-write-user"
	PathReadUser        = "bdays-read-user"
	PathReadByName      = "bdays-read-by-name"
	PathReadUserByEmail = "bdays-read-user-by-email"
	PathAddFriends      = "bdays-add-friends"
	PathGetLeaderboard  = "bdays-get-leaderboard"
)

// Endpoints holds the fixed URL of every directory operation.
type Endpoints struct {
	WriteUser       string
	ReadUser        string
	ReadByName      string
	ReadUserByEmail string
	AddFriends      string
	GetLeaderboard  string
}

// DefaultEndpoints returns the production directory URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		WriteUser:       "https://b34fgpro7k.execute-api.eu-central-1.amazonaws.com/default/bdays-write-user",
		ReadUser:        "https://manxq01vdd.execute-api.eu-central-1.amazonaws.com/default/bdays-read-user",
		ReadByName:      "https://waq6xksnbf.execute-api.eu-central-1.amazonaws.com/default/bdays-read-by-name",
		ReadUserByEmail: "https://3n3l9jzjlg.execute-api.eu-central-1.amazonaws.com/default/bdays-read-user-by-email",
		AddFriends:      "https://jkrxhvqegh.execute-api.eu-central-1.amazonaws.com/default/bdays-add-friends",
		GetLeaderboard:  "https://h46glcx3dl.execute-api.eu-central-1.amazonaws.com/default/bdays-get-leaderboard",
	}
}

// ByPath maps proxy path segments to endpoint URLs. Operations with an empty
// URL are left out.
func (e Endpoints) ByPath() map[string]string {
	all := map[string]string{
		PathWriteUser:       e.WriteUser,
		PathReadUser:        e.ReadUser,
		PathReadByName:      e.ReadByName,
		PathReadUserByEmail: e.ReadUserByEmail,
		PathAddFriends:      e.AddFriends,
		PathGetLeaderboard:  e.GetLeaderboard,
	}
	for path, url := range all {
		if url == "" {
			delete(all, path)
		}
	}
	return all
}
