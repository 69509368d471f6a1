package properties

import "os"

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

func CopernicusTokenURL() string {
	return os.Getenv("COPERNICUS_TOKEN_URL")
}

func CopernicusClientID() string {
	return os.Getenv("COPERNICUS_CLIENT_ID")
}

func CopernicusClientSecret() string {
	return os.Getenv("COPERNICUS_CLIENT_SECRET")
}

func CatalogBaseURL() string {
	if url := os.Getenv("CATALOG_BASE_URL"); url != "" {
		return url
	}
	return "https://catalogue.dataspace.copernicus.eu/odata/v1"
}

func ProcessAPIURL() string {
	if url := os.Getenv("PROCESS_API_URL"); url != "" {
		return url
	}
	return "https://sh.dataspace.copernicus.eu/api/v1/process"
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
