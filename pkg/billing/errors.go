package billing

import "errors"

var (
	// Caller input problems, user-correctable.
	ErrValidation         = errors.New("billing: invalid or missing input")
	ErrPlanNotFound       = errors.New("billing: plan not found")
	ErrPlanNotPurchasable = errors.New("billing: plan cannot be purchased")
	ErrMissingTenantID    = errors.New("billing: tenant ID is required")
	ErrMissingEmail       = errors.New("billing: email is required")
	ErrInvalidAmount      = errors.New("billing: amount must be a positive number of minor units")
	ErrUnknownCustomerRef = errors.New("billing: no subscription matches customer reference")

	// Request rejected outright, no state mutation.
	ErrAuthentication = errors.New("billing: webhook signature verification failed")

	// Upstream payment provider reported a structured failure.
	ErrGateway = errors.New("billing: payment gateway rejected the request")

	// Network-level failure reaching the provider.
	ErrTransport = errors.New("billing: payment gateway unreachable")

	// Persistence layer rejected a read or write.
	ErrStorage = errors.New("billing: storage operation failed")

	ErrSubscriptionNotFound      = errors.New("billing: subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("billing: subscription already exists")

	ErrLimitExceeded       = errors.New("billing: plan limit exceeded")
	ErrInvalidResource     = errors.New("billing: resource not covered by plan")
	ErrNoCounterRegistered = errors.New("billing: no usage counter registered for resource")

	ErrFailedToLoadPlans        = errors.New("billing: failed to load plan catalog")
	ErrInvalidPlanConfiguration = errors.New("billing: invalid plan configuration")

	ErrMissingSecretKey     = errors.New("billing: gateway secret key is required")
	ErrMissingWebhookSecret = errors.New("billing: webhook secret is required")
)
