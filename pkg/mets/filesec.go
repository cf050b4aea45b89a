package mets

import (
	"strconv"

	"emperror.dev/errors"
	"github.com/beevik/etree"
)

func (e *Entry) fileElement(sc *serialContext) (*etree.Element, error) {
	fileID, err := e.FileID()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	file := newMETS("file", sc.qualified)
	file.CreateAttr("ID", fileID)
	if groupID, err := e.GroupID(); err == nil {
		file.CreateAttr("GROUPID", groupID)
	} else if !e.isAIP() {
		return nil, errors.WithStack(err)
	}
	if admids := e.AdmIDs(); len(admids) > 0 {
		file.CreateAttr("ADMID", joinIDs(admids))
	}
	if e.checksum != "" {
		file.CreateAttr("CHECKSUM", e.checksum)
		file.CreateAttr("CHECKSUMTYPE", e.checksumType)
	}
	if p := e.Path(); p != "" {
		href, err := URLEncode(p)
		if err != nil {
			return nil, errors.Wrapf(ErrSerialize, "invalid location '%s': %v", p, err)
		}
		flocat := addMETS(file, "FLocat", sc.qualified)
		flocat.CreateAttr("xlink:href", href)
		flocat.CreateAttr("LOCTYPE", "OTHER")
		flocat.CreateAttr("OTHERLOCTYPE", "SYSTEM")
	}
	for _, tf := range e.TransformFiles() {
		el := addMETS(file, "transformFile", sc.qualified)
		el.CreateAttr("TRANSFORMALGORITHM", tf.Algorithm)
		el.CreateAttr("TRANSFORMORDER", strconv.Itoa(tf.Order))
		el.CreateAttr("TRANSFORMTYPE", tf.Type)
		if tf.Key != "" {
			el.CreateAttr("TRANSFORMKEY", tf.Key)
		}
	}
	return file, nil
}

// fileSec groups all files with a use into fileGrp elements in first-encounter order.
func fileSec(entries []*Entry, sc *serialContext) (*etree.Element, error) {
	sec := newMETS("fileSec", sc.qualified)
	groups := map[string]*etree.Element{}
	for _, e := range entries {
		if e.IsDirectory() || e.use == "" || e.placeholder() {
			continue
		}
		grp, ok := groups[e.use]
		if !ok {
			grp = addMETS(sec, "fileGrp", sc.qualified)
			grp.CreateAttr("USE", e.use)
			groups[e.use] = grp
		}
		file, err := e.fileElement(sc)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot build file element for '%s'", e.Path())
		}
		grp.AddChild(file)
	}
	return sec, nil
}

func parseTransformFile(el *etree.Element) (TransformFile, error) {
	tf := TransformFile{
		Algorithm: attr(el, "TRANSFORMALGORITHM"),
		Type:      attr(el, "TRANSFORMTYPE"),
		Key:       attr(el, "TRANSFORMKEY"),
	}
	if order := attr(el, "TRANSFORMORDER"); order != "" {
		n, err := strconv.Atoi(order)
		if err != nil {
			return tf, errors.Wrapf(ErrParse, "invalid TRANSFORMORDER '%s'", order)
		}
		tf.Order = n
	}
	return tf, nil
}
