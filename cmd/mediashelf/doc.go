// Command mediashelf organizes a photo/video library into dated folders and
// mirrors it onto an archive volume.
//
//	mediashelf organize <library-root> [--inbox]
//	mediashelf sync <source-root> <destination-root>
//	mediashelf config init|validate
//	mediashelf cache stats|prune|clear
//	mediashelf logs [-n lines] [-f] [--run id]
//
// Both runs are safe to repeat: organize leaves placed files alone and sync
// only ever adds missing files.
package main
