// @title           campaign-desk API
// @version         1.0
// @description     Data proxy and auth-state endpoints for the campaign dashboard.
// @BasePath        /api
package api
