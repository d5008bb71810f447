package app

type admitReply struct {
	target string
	err    error
}

// AdmitUpload gates a transfer. The caller (HTTP handler goroutine) has
// already scanned the directory for existingTotal; the decision itself
// runs on the dispatch loop so admission is atomic with the slot state.
// On success the target filename is reserved and upload-start announced.
func (o *Orchestrator) AdmitUpload(expected, existingTotal int64, originalName string) (string, error) {
	reply := make(chan admitReply, 1)
	o.Post(func() {
		target := o.Store.UniqueName(originalName, o.now())
		if _, err := o.Uploads.Admit(expected, existingTotal, target, o.now()); err != nil {
			reply <- admitReply{err: err}
			return
		}
		o.broadcast("upload-start", nil)
		reply <- admitReply{target: target}
	})
	res := <-reply
	return res.target, res.err
}

// UploadProgress reports the running byte count from the copy goroutine.
func (o *Orchestrator) UploadProgress(transferred int64) {
	o.Post(func() {
		if sample, send := o.Uploads.Progress(transferred, o.now()); send {
			o.broadcast("upload-progress", sample)
		}
	})
}

type uploadEnd struct {
	Filename string `json:"filename,omitempty"`
}

// FinishUpload releases the slot. It runs for success and failure alike,
// so clients never stay stuck believing a transfer is in progress. The
// filename is empty on failure.
func (o *Orchestrator) FinishUpload(filename string, ok bool) {
	done := make(chan struct{})
	o.Post(func() {
		if ok {
			// The byte count tracks the part, not the framed request
			// body, so the closing sample carries the full percentage.
			o.broadcast("upload-progress", ProgressSample{Percent: 100})
		}
		o.Uploads.Finish()
		o.broadcast("upload-end", uploadEnd{Filename: filename})
		if ok {
			o.broadcastAssets()
		}
		close(done)
	})
	<-done
}

type assetDeleted struct {
	Filename string `json:"filename"`
}

// AnnounceAssetDeleted broadcasts a deletion performed over HTTP and
// refreshes everyone's asset listing.
func (o *Orchestrator) AnnounceAssetDeleted(filename string) {
	o.Post(func() {
		o.broadcast("asset-deleted", assetDeleted{Filename: filename})
		o.broadcastAssets()
	})
}

// UploadActive answers the HTTP layer's pre-check without mutating state.
func (o *Orchestrator) UploadActive() bool {
	reply := make(chan bool, 1)
	o.Post(func() { reply <- o.Uploads.Active() })
	return <-reply
}

type targetReply struct {
	target string
	ok     bool
}

// UploadTarget names the file an in-flight transfer is writing to, so
// the delete endpoint can refuse to unlink it mid-write.
func (o *Orchestrator) UploadTarget() (string, bool) {
	reply := make(chan targetReply, 1)
	o.Post(func() {
		target, ok := o.Uploads.ActiveTarget()
		reply <- targetReply{target: target, ok: ok}
	})
	res := <-reply
	return res.target, res.ok
}
