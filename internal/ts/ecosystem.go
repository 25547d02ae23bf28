package ts

import "context"

// EcosystemSchema is the registry of every game Thunderstore knows about,
// keyed by game label, plus the communities serving them.
type EcosystemSchema struct {
	SchemaVersion string                     `json:"schemaVersion"`
	Games         map[string]GameDef         `json:"games"`
	Communities   map[string]SchemaCommunity `json:"communities"`
}

// GameDef describes a single game: identity, store distributions, and the
// r2modman section driving mod installation.
type GameDef struct {
	UUID          string            `json:"uuid"`
	Label         string            `json:"label"`
	Meta          GameDefMeta       `json:"meta"`
	Distributions []GameDefPlatform `json:"distributions"`
	R2Modman      *GameDefR2MM      `json:"r2modman,omitempty"`
}

// GameDefMeta holds display metadata for a game.
type GameDefMeta struct {
	DisplayName string `json:"displayName"`
	IconURL     string `json:"iconUrl,omitempty"`
}

// Store platforms a game can be distributed on.
const (
	PlatformSteam       = "steam"
	PlatformSteamDirect = "steam-direct"
	PlatformEGS         = "epic-games-store"
	PlatformGamePass    = "xbox-game-pass"
	PlatformEA          = "origin"
	PlatformOther       = "other"
)

// GameDefPlatform names one store distribution of a game and the store's
// identifier for it (a Steam app ID, an EGS catalog name, and so on).
type GameDefPlatform struct {
	Platform   string `json:"platform"`
	Identifier string `json:"identifier,omitempty"`
}

// GameDefR2MM carries the install layout a mod manager needs: where game
// data lives, which executables to launch, and which loaders to install.
type GameDefR2MM struct {
	InternalFolderName string             `json:"internalFolderName"`
	DataFolderName     string             `json:"dataFolderName"`
	SettingsIdentifier string             `json:"settingsIdentifier"`
	PackageIndex       string             `json:"packageIndex"`
	SteamFolderName    string             `json:"steamFolderName"`
	ExeNames           []string           `json:"exeNames"`
	GameInstanceType   string             `json:"gameInstancetype"`
	ModLoaderPackages  []ModLoaderPackage `json:"modLoaderPackages"`
}

// ModLoaderPackage names a loader package and where it unpacks.
type ModLoaderPackage struct {
	PackageID  string `json:"packageId"`
	RootFolder string `json:"rootFolder"`
	Loader     string `json:"loader"`
}

// SchemaCommunity is a Thunderstore community in the ecosystem schema.
type SchemaCommunity struct {
	DisplayName string `json:"displayName"`
	DiscordURL  string `json:"discordUrl,omitempty"`
}

// FetchEcosystemSchema downloads the latest ecosystem schema.
func (c *Client) FetchEcosystemSchema(ctx context.Context) (*EcosystemSchema, error) {
	var schema EcosystemSchema
	url := c.baseURL + "/api/experimental/schema/dev/latest/"
	if err := c.getJSON(ctx, url, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}
