// Package api handles incoming HTTP requests, request validation and
// response formatting. It acts as an adapter between external clients and
// the job service, translating HTTP concerns to service operations.
//
// Endpoints:
//
//	POST /api/jobs          multipart upload (file, optional email), 202 Accepted
//	GET  /api/jobs/{id}     status and, once done, explanations
//	GET  /api/jobs/latest   latest job for ?email=&name=
//	GET  /health            liveness and database reachability
//
// Status queries for jobs that do not exist answer 404 with a JobResponse
// whose status is "not found" and whose other fields are empty.
package api
