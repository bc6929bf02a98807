// Package models defines the wire types exchanged with the iVideo backend.
//
// The package contains three groups of types:
//
// 1. Identity: [UserInfo] and [LoginResponse]. UserInfo is owned by the session and persisted verbatim as JSON.
//
// 2. Projects: [Project], [ProjectDetail], [ProjectList], [CreateProjectResult] and [AddVideoResult].
//
// 3. Media: [VideoFile], [VideoList], [UploadResult], [VideoInfo], [ProcessResult] and [SystemStatus].
//
// Field names follow the backend's snake_case JSON; no type here carries behavior beyond small accessors.
package models
