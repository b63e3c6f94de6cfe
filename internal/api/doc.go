// The API surface under /api/v1:
//
//	GET    /health                                 public
//	POST   /auth/register                          public
//	POST   /auth/login                             public
//	GET    /metrics                                identity required
//	GET    /account, /account/activity             identity required
//	GET    /projects, POST /projects               identity required
//	GET|PUT|DELETE /projects/{projectID}           owner only
//	GET    /projects/{projectID}/tasks, POST ...   owner only
//	GET|PUT|DELETE /projects/{projectID}/tasks/{taskID}
//
// # Security
//
// Every /api/v1 request passes through the identity middleware. A request
// with no "Bearer " Authorization header is anonymous; one whose token is
// malformed, badly signed or expired is rejected with a generic 401 and the
// precise reason is logged at WARN. Protected routes then require an
// identity.
//
// Ownership is enforced in the project service, not here: a project or
// task belonging to another account is reported as 404, exactly like one
// that does not exist.
//
// # Side effects
//
// Successful logins, registrations and mutations are written to the audit
// log asynchronously. Auth decisions and request timings go to InfluxDB
// when it is configured.
package api
