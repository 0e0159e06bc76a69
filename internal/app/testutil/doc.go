// Package testutil provides shared test helpers for the bot.
//
//   - fixtures.go: WAV clips generated with go-audio and chat message fixtures
//   - mock_transcriber.go: MockTranscriber, a configurable api.Transcriber
//   - mock_result_store.go: MockResultStore and RecordingStore
//   - mock_services.go: in-memory Replier and Fetcher fakes, MockConverter
//   - db_helpers.go: SetupTestSQLite for tests that want a real SQL store
//
// # Usage
//
//	func TestTranscription(t *testing.T) {
//	    replier := testutil.NewFakeReplier()
//	    fetcher := testutil.NewFakeFetcher().With(testutil.AttachmentURL("1"), oggBytes)
//	    backend := testutil.NewMockTranscriber().WithDefaultResponse("hello world")
//	    // build a pipeline with these and call Handle(ctx, testutil.VoiceMessage("1"))
//	}
//
// All fakes are safe for concurrent use.
package testutil
