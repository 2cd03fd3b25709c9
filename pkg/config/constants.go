package config

const EnvPrefix = "tokri"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "TOKRI_APP_ENV"
	EnvPort       = "TOKRI_APP_PORT"
	EnvDBDSN      = "TOKRI_DB_DSN"
	EnvDBHost     = "TOKRI_DB_HOST"
	EnvDBUser     = "TOKRI_DB_USER"
	EnvDBName     = "TOKRI_DB_NAME"
	EnvRedisURL   = "TOKRI_REDIS_URL"
	EnvJWTSecret  = "TOKRI_JWT_SECRET"
	EnvJWTIssuer  = "TOKRI_JWT_ISSUER"
	EnvJWTExpMins = "TOKRI_JWT_EXPIRATION_MINUTES"

	EnvCheckoutFreeDeliveryThreshold = "TOKRI_CHECKOUT_FREE_DELIVERY_THRESHOLD"
	EnvCheckoutFlatDeliveryCharge    = "TOKRI_CHECKOUT_FLAT_DELIVERY_CHARGE"
	EnvCheckoutCODSurcharge          = "TOKRI_CHECKOUT_COD_SURCHARGE"

	EnvPubSubProjectID       = "TOKRI_PUBSUB_PROJECT_ID"
	EnvPubSubOrdersTopic     = "TOKRI_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub       = "TOKRI_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationSub = "TOKRI_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
